package game

import "time"

type AccountKind string

const (
	AccountChecking       AccountKind = "checking"
	AccountSavings        AccountKind = "savings"
	AccountCreditStandard AccountKind = "credit_standard"
	AccountCreditPlatinum AccountKind = "credit_platinum"
	AccountCreditBlack    AccountKind = "credit_black"
	AccountFamilyTrust    AccountKind = "family_trust"
)

type AssetType string

const (
	AssetCrypto AssetType = "crypto"
	AssetStock  AssetType = "stock"
)

type MessageStatus string

const (
	StatusNone     MessageStatus = ""
	StatusPending  MessageStatus = "pending"
	StatusAccepted MessageStatus = "accepted"
	StatusRejected MessageStatus = "rejected"
	StatusExpired  MessageStatus = "expired"
)

type Stage string

const (
	StageRatRace Stage = "rat_race"
	StageWealth  Stage = "wealth"
)

type UpdateKind string

const (
	UpdateCrypto   UpdateKind = "crypto"
	UpdateEquity   UpdateKind = "equity"
	UpdateBusiness UpdateKind = "business"
)

type LinkKind string

const (
	LinkNone        LinkKind = ""
	LinkOpportunity LinkKind = "opportunity"
	LinkAsset       LinkKind = "asset"
	LinkMarket      LinkKind = "market"
)

// State is the whole mutable world. One Engine owns it; the modules in this
// package are plain functions over *State.
type State struct {
	Player       Player        `json:"player"`
	GoalID       string        `json:"goal_id"`
	Accounts     Accounts      `json:"accounts"`
	Transactions []Transaction `json:"transactions"`
	Crypto       Portfolio     `json:"crypto"`
	Equity       Portfolio     `json:"equity"`
	Quotes       []Quote       `json:"quotes"`
	Businesses   []Business    `json:"businesses"`
	StartupOwned bool          `json:"startup_owned"`
	Inbox        Inbox         `json:"inbox"`
	UserPosts    []Post        `json:"user_posts"`
	PendingPosts []Post        `json:"pending_posts"`
	Market       MarketState   `json:"market"`
	ExitPrompt   *ExitPrompt   `json:"exit_prompt,omitempty"`

	GameDate             time.Time `json:"game_date"`
	LastRecordedMonth    string    `json:"last_recorded_month"`
	Cycle                int64     `json:"cycle"`
	RefreshesSincePayday int       `json:"refreshes_since_payday"`
	PaydayThreshold      int       `json:"payday_threshold"`
	LeveledUp            bool      `json:"leveled_up"`

	// Feed is rebuilt on every refresh and never persisted.
	Feed             []Post        `json:"-"`
	LastMarketUpdate *MarketUpdate `json:"-"`
}

type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Handle    string    `json:"handle"`
	RoleID    string    `json:"role_id"`
	Children  int       `json:"children"`
	AvatarRef string    `json:"avatar_ref,omitempty"`
	Stage     Stage     `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
}

type Role struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Tier          int           `json:"tier"`
	MonthlySalary int64         `json:"monthly_salary_micros"`
	CreditLimit   int64         `json:"credit_limit_micros"`
	CardType      AccountKind   `json:"card_type"`
	Expenses      []ExpenseItem `json:"expenses"`
}

type ExpenseItem struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount_micros"`
}

type Goal struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	TargetPassiveIncome int64  `json:"target_passive_income_micros"`
}

// Accounts holds independent balances. Credit fields are amounts owed.
type Accounts struct {
	Checking       int64 `json:"checking_micros"`
	Savings        int64 `json:"savings_micros"`
	CreditStandard int64 `json:"credit_standard_micros"`
	CreditPlatinum int64 `json:"credit_platinum_micros"`
	CreditBlack    int64 `json:"credit_black_micros"`
	FamilyTrust    int64 `json:"family_trust_micros"`
}

type Transaction struct {
	ID          string      `json:"id"`
	Date        time.Time   `json:"date"`
	Description string      `json:"description"`
	Amount      int64       `json:"amount_micros"`
	IsIncome    bool        `json:"is_income"`
	Account     AccountKind `json:"account"`
}

type Asset struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Quantity      int64     `json:"quantity_units"`
	CurrentPrice  int64     `json:"current_price_micros"`
	PurchasePrice int64     `json:"purchase_price_micros"`
	Type          AssetType `json:"type"`
}

type Quote struct {
	Symbol string    `json:"symbol"`
	Name   string    `json:"name"`
	Type   AssetType `json:"type"`
	Price  int64     `json:"price_micros"`
}

type Business struct {
	ID                  string    `json:"id"`
	TemplateID          string    `json:"template_id"`
	Name                string    `json:"name"`
	Symbol              string    `json:"symbol"`
	Category            string    `json:"category"`
	FounderID           string    `json:"founder_id"`
	Revenue             int64     `json:"revenue_micros"`
	Expenses            int64     `json:"expenses_micros"`
	SetupCost           int64     `json:"setup_cost_micros"`
	SaleMultiple        float64   `json:"sale_multiple"`
	RevenueShare        float64   `json:"revenue_share"`
	CurrentExitMultiple float64   `json:"current_exit_multiple"`
	AcquiredAt          time.Time `json:"acquired_at,omitempty"`
}

type Message struct {
	ID          string        `json:"id"`
	ThreadID    string        `json:"thread_id"`
	SenderID    string        `json:"sender_id"`
	SenderName  string        `json:"sender_name"`
	SenderRole  string        `json:"sender_role"`
	FromPlayer  bool          `json:"from_player"`
	Seq         int64         `json:"seq"`
	Timestamp   time.Time     `json:"timestamp"`
	Cycle       int64         `json:"cycle"`
	Content     string        `json:"content"`
	Opportunity *Business     `json:"opportunity,omitempty"`
	Status      MessageStatus `json:"status,omitempty"`
	Read        bool          `json:"read"`
	Archived    bool          `json:"archived"`
}

type MarketState struct {
	Regime string `json:"regime"`
}

type MarketUpdate struct {
	ID       string             `json:"id"`
	Kind     UpdateKind         `json:"kind"`
	Headline string             `json:"headline"`
	Items    []MarketUpdateItem `json:"items"`
}

// MarketUpdateItem carries a new price for assets/quotes or a new exit
// multiple for businesses, never both.
type MarketUpdateItem struct {
	Symbol     string  `json:"symbol"`
	BusinessID string  `json:"business_id,omitempty"`
	Price      int64   `json:"price_micros,omitempty"`
	Multiple   float64 `json:"multiple,omitempty"`
}

type Post struct {
	ID         string    `json:"id"`
	Author     string    `json:"author"`
	Handle     string    `json:"handle"`
	FromPlayer bool      `json:"from_player"`
	Content    string    `json:"content"`
	MediaRefs  []string  `json:"media_refs,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Link       PostLink  `json:"link"`
}

type PostLink struct {
	Kind   LinkKind `json:"kind,omitempty"`
	Symbol string   `json:"symbol,omitempty"`
}

type ExitPrompt struct {
	BusinessID string  `json:"business_id"`
	Name       string  `json:"name"`
	Multiple   float64 `json:"multiple"`
	Proceeds   int64   `json:"proceeds_micros"`
}

type TradeInput struct {
	Symbol   string
	Name     string
	Type     AssetType
	Quantity int64
	Price    int64
	Account  AccountKind
	At       time.Time
}

type NewGameInput struct {
	RoleID    string
	GoalID    string
	Name      string
	Handle    string
	AvatarRef string
}

type RefreshReport struct {
	Cycle         int64      `json:"cycle"`
	DayType       DayType    `json:"day_type"`
	MarketKind    UpdateKind `json:"market_kind"`
	Expired       int        `json:"expired"`
	Opportunities int        `json:"opportunities"`
	FeedPosts     int        `json:"feed_posts"`
	Payday        bool       `json:"payday"`
	LeveledUp     bool       `json:"leveled_up"`
	ExitPrompt    bool       `json:"exit_prompt"`
}

type Dashboard struct {
	Player          Player         `json:"player"`
	Role            Role           `json:"role"`
	GoalID          string         `json:"goal_id"`
	Goal            GoalProgress   `json:"goal"`
	GameDate        time.Time      `json:"game_date"`
	Accounts        Accounts       `json:"accounts"`
	MonthlySalary   int64          `json:"monthly_salary_micros"`
	PassiveIncome   int64          `json:"passive_income_micros"`
	MonthlyIncome   int64          `json:"monthly_income_micros"`
	MonthlyExpenses int64          `json:"monthly_expenses_micros"`
	MonthlyCashflow int64          `json:"monthly_cashflow_micros"`
	OutOfRatRace    bool           `json:"out_of_rat_race"`
	NetWorth        int64          `json:"net_worth_micros"`
	UnreadMessages  int            `json:"unread_messages"`
	Positions       []PositionView `json:"positions"`
	Businesses      []BusinessView `json:"businesses"`
	ExitPrompt      *ExitPrompt    `json:"exit_prompt,omitempty"`
}

// GoalProgress compares passive income with the chosen goal's target.
type GoalProgress struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	TargetPassiveIncome int64   `json:"target_passive_income_micros"`
	PassiveIncome       int64   `json:"passive_income_micros"`
	Percent             float64 `json:"percent"`
	Reached             bool    `json:"reached"`
}

type PositionView struct {
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name"`
	Type             AssetType `json:"type"`
	QuantityUnits    int64     `json:"quantity_units"`
	AvgPriceMicros   int64     `json:"avg_price_micros"`
	CurrentPrice     int64     `json:"current_price_micros"`
	UnrealizedMicros int64     `json:"unrealized_micros"`
}

type BusinessView struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	MonthlyCashflow int64   `json:"monthly_cashflow_micros"`
	MonthlyDividend int64   `json:"monthly_dividend_micros"`
	RevenueShare    float64 `json:"revenue_share"`
	ExitMultiple    float64 `json:"exit_multiple"`
	SaleMultiple    float64 `json:"sale_multiple"`
	ExitValue       int64   `json:"exit_value_micros"`
	PlayerProceeds  int64   `json:"player_proceeds_micros"`
}
