package constants

// 抽选券状态常量
const (
	TicketStatusUnused = "unused"
	TicketStatusUsed   = "used"
)

// 奖品码状态常量
// PrizeCodeStatusUnused 为历史数据中的未分配别名，与 unassigned 等价
const (
	PrizeCodeStatusUnassigned = "unassigned"
	PrizeCodeStatusUnused     = "unused"
	PrizeCodeStatusAssigned   = "assigned"
	PrizeCodeStatusRedeemed   = "redeemed"
)

// 奖品等级常量（优先级从高到低）
const (
	RankSS = "ss"
	RankS  = "s"
	RankA  = "a"
	RankB  = "b"
)

// 后台操作类型常量
const (
	AdminActionGrantTicket  = "grant_ticket"
	AdminActionRevokeTicket = "revoke_ticket"
	AdminActionRedeemCode   = "redeem_code"
	AdminActionUnredeemCode = "unredeem_code"
)

// 队列与任务常量
const (
	QueueDefault = "default"

	TaskDrawRaceLost  = "draw:race_lost"
	TaskDrawReconcile = "draw:reconcile"
)

// ShortCodeLength 用户可见短码长度（取完整码末尾）
const ShortCodeLength = 4

// LookupPhoneMinDigits 查询串被视为手机号所需的最少数字位数
const LookupPhoneMinDigits = 8

// 响应语言常量
const (
	LocaleJaJP = "ja-JP"
	LocaleEnUS = "en-US"
)

// 支持的响应语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleJaJP, LocaleEnUS}
