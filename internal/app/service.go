package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

// Service 服务接口
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type closer struct {
	name string
	fn   func() error
}

type serviceExit struct {
	name string
	err  error
}

// Runner 服务运行器
// 任一服务退出即整体停机；所有服务停止后按注册逆序释放共享资源
type Runner struct {
	services []Service
	closers  []closer
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// AddCloser 注册停机后需要释放的资源
func (r *Runner) AddCloser(name string, fn func() error) {
	if r == nil || fn == nil {
		return
	}
	r.closers = append(r.closers, closer{name: name, fn: fn})
}

// ServiceNames 已注册的服务名
func (r *Runner) ServiceNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.services))
	for _, svc := range r.services {
		if svc != nil {
			names = append(names, svc.Name())
		}
	}
	return names
}

// RunWithOptions 运行服务并处理系统信号
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// Run 启动并监听服务
// 信号取消视为正常停机；服务自行退出时返回带服务名的错误
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, logger *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if logger != nil {
		logger.Infow("runner_start", "services", r.ServiceNames())
	}
	exitCh := make(chan serviceExit, len(r.services))
	for _, svc := range r.services {
		service := svc
		go func() {
			if service == nil {
				exitCh <- serviceExit{name: "unknown", err: errors.New("service is nil")}
				return
			}
			name := service.Name()
			if logger != nil {
				logger.Infow("service_start", "service", name)
			}
			err := service.Start(ctx)
			if logger != nil {
				logger.Infow("service_exit", "service", name, "error", err)
			}
			exitCh <- serviceExit{name: name, err: err}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case exit := <-exitCh:
		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}
		if exit.err == nil {
			exit.err = errors.New("exited unexpectedly")
		}
		runErr = fmt.Errorf("service %s: %w", exit.name, exit.err)
	}

	cancel()
	r.stopServices(stopTimeout, logger)
	r.releaseResources(logger)

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func (r *Runner) stopServices(stopTimeout time.Duration, logger *zap.SugaredLogger) {
	if stopTimeout <= 0 {
		stopTimeout = 10 * time.Second
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	for _, svc := range r.services {
		if svc == nil {
			continue
		}
		if err := svc.Stop(stopCtx); err != nil && logger != nil {
			logger.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
}

func (r *Runner) releaseResources(logger *zap.SugaredLogger) {
	for i := len(r.closers) - 1; i >= 0; i-- {
		item := r.closers[i]
		if err := item.fn(); err != nil && logger != nil {
			logger.Warnw("resource_close_failed", "resource", item.name, "error", err)
		}
	}
}
