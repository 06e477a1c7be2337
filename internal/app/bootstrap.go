package app

import (
	"errors"

	"github.com/prize-lottery/internal/config"
	"github.com/prize-lottery/internal/logger"
	"github.com/prize-lottery/internal/provider"
	"github.com/prize-lottery/internal/router"
	"github.com/prize-lottery/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	container, err := provider.NewContainer(cfg)
	if err != nil {
		return nil, err
	}

	var services []Service

	// 初始化 HTTP 服务
	if servesHTTP(mode) {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server, engine))
	}

	// 初始化 Worker 服务；all 模式下无任务可跑时跳过
	if runsWorker(mode) {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(cfg, consumer)
		switch {
		case err == nil:
			services = append(services, workerService)
		case workerOptional(mode) && errors.Is(err, worker.ErrNothingToRun):
			logger.Infow("app_worker_skipped", "reason", err.Error())
		default:
			_ = container.Close()
			return nil, err
		}
	}

	if len(services) == 0 {
		_ = container.Close()
		return nil, errors.New("no services initialized (check mode and config)")
	}

	runner := NewRunner(services...)
	runner.AddCloser("container", container.Close)
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "mode", opts.Mode, "services", runner.ServiceNames())
	return RunWithOptions(runner, opts)
}
