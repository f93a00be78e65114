package game

import (
	"fmt"
	"strings"
)

func usd(v int64) int64 { return v * MicrosPerDollar }

// Roles start in the rat race: every expense schedule is at least the salary.
var Roles = []Role{
	{
		ID: "barista", Title: "Barista", Tier: 1,
		MonthlySalary: usd(3_200), CreditLimit: usd(2_000), CardType: AccountCreditStandard,
		Expenses: []ExpenseItem{
			{Name: "Rent", Amount: usd(1_700)},
			{Name: "Groceries", Amount: usd(550)},
			{Name: "Transit pass", Amount: usd(150)},
			{Name: "Phone", Amount: usd(100)},
			{Name: "Student loan", Amount: usd(800)},
		},
	},
	{
		ID: "teacher", Title: "Teacher", Tier: 1,
		MonthlySalary: usd(4_500), CreditLimit: usd(5_000), CardType: AccountCreditStandard,
		Expenses: []ExpenseItem{
			{Name: "Rent", Amount: usd(2_500)},
			{Name: "Groceries", Amount: usd(750)},
			{Name: "Car payment", Amount: usd(700)},
			{Name: "Insurance", Amount: usd(450)},
			{Name: "Phone", Amount: usd(150)},
		},
	},
	{
		ID: "engineer", Title: "Software Engineer", Tier: 2,
		MonthlySalary: usd(9_500), CreditLimit: usd(15_000), CardType: AccountCreditPlatinum,
		Expenses: []ExpenseItem{
			{Name: "Rent", Amount: usd(4_200)},
			{Name: "Groceries", Amount: usd(1_100)},
			{Name: "Car payment", Amount: usd(900)},
			{Name: "Insurance", Amount: usd(600)},
			{Name: "Phone", Amount: usd(150)},
			{Name: "Travel", Amount: usd(2_600)},
		},
	},
	{
		ID: "doctor", Title: "Doctor", Tier: 2,
		MonthlySalary: usd(14_000), CreditLimit: usd(25_000), CardType: AccountCreditPlatinum,
		Expenses: []ExpenseItem{
			{Name: "Mortgage", Amount: usd(6_000)},
			{Name: "Groceries", Amount: usd(1_400)},
			{Name: "Car payment", Amount: usd(1_100)},
			{Name: "Malpractice insurance", Amount: usd(1_800)},
			{Name: "Medical school loans", Amount: usd(3_800)},
		},
	},
	{
		ID: "executive", Title: "Executive", Tier: 3,
		MonthlySalary: usd(28_000), CreditLimit: usd(75_000), CardType: AccountCreditBlack,
		Expenses: []ExpenseItem{
			{Name: "Mortgage", Amount: usd(12_000)},
			{Name: "Dining", Amount: usd(3_000)},
			{Name: "Cars", Amount: usd(3_500)},
			{Name: "Household staff", Amount: usd(5_000)},
			{Name: "Club dues", Amount: usd(2_000)},
			{Name: "Insurance", Amount: usd(2_600)},
		},
	},
	{
		ID: "heir", Title: "Heir", Tier: 3,
		MonthlySalary: usd(12_000), CreditLimit: usd(100_000), CardType: AccountCreditBlack,
		Expenses: []ExpenseItem{
			{Name: "Estate upkeep", Amount: usd(7_000)},
			{Name: "Dining", Amount: usd(1_500)},
			{Name: "Travel", Amount: usd(2_600)},
			{Name: "Household staff", Amount: usd(1_000)},
		},
	},
}

var Goals = []Goal{
	{ID: "escape", Title: "Escape the rat race", TargetPassiveIncome: usd(5_000)},
	{ID: "retire_early", Title: "Retire early", TargetPassiveIncome: usd(15_000)},
	{ID: "empire", Title: "Build an empire", TargetPassiveIncome: usd(50_000)},
}

func RoleByID(id string) (Role, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, r := range Roles {
		if r.ID == id {
			return r, nil
		}
	}
	return Role{}, fmt.Errorf("%w: %s", ErrUnknownRole, id)
}

func GoalByID(id string) (Goal, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, g := range Goals {
		if g.ID == id {
			return g, nil
		}
	}
	return Goal{}, fmt.Errorf("%w: %s", ErrUnknownGoal, id)
}

func startingAccounts(tier int) Accounts {
	switch tier {
	case 3:
		return Accounts{Checking: usd(60_000), Savings: usd(40_000), FamilyTrust: usd(250_000)}
	case 2:
		return Accounts{Checking: usd(15_000), Savings: usd(10_000)}
	default:
		return Accounts{Checking: usd(5_000), Savings: usd(1_000)}
	}
}

type businessTemplate struct {
	ID           string
	Name         string
	Symbol       string
	Category     string
	Founder      string
	FounderRole  string
	Pitch        string
	Revenue      int64
	Expenses     int64
	SetupCost    int64
	SaleMultiple float64
	RevenueShare float64
	Multiple     float64
}

var businessCatalog = []businessTemplate{
	{ID: "laundromat", Name: "Suds & Spin Laundromat", Symbol: "SUDS", Category: "services", Founder: "Rosa Mendez", FounderRole: "Owner-operator", Pitch: "Two locations, steady quarters every week.", Revenue: usd(9_000), Expenses: usd(6_000), SetupCost: usd(25_000), SaleMultiple: 4.0, RevenueShare: 30, Multiple: 3.2},
	{ID: "food_truck", Name: "Taco Tempest", Symbol: "TACO", Category: "food", Founder: "Marco Diaz", FounderRole: "Chef", Pitch: "Lines around the block at lunch. Need a second truck.", Revenue: usd(14_000), Expenses: usd(11_000), SetupCost: usd(18_000), SaleMultiple: 3.0, RevenueShare: 25, Multiple: 2.5},
	{ID: "vending", Name: "Snack Grid Vending", Symbol: "SNAK", Category: "retail", Founder: "Dana Brooks", FounderRole: "Route owner", Pitch: "Forty machines in office parks, cash every Friday.", Revenue: usd(4_000), Expenses: usd(1_800), SetupCost: usd(12_000), SaleMultiple: 3.5, RevenueShare: 40, Multiple: 3.0},
	{ID: "app_studio", Name: "Pixel Forge Apps", Symbol: "PIXL", Category: "tech", Founder: "Jin Park", FounderRole: "Founder", Pitch: "Three profitable mobile apps, looking for a partner.", Revenue: usd(12_000), Expenses: usd(4_000), SetupCost: usd(35_000), SaleMultiple: 5.0, RevenueShare: 20, Multiple: 4.0},
	{ID: "fitness", Name: "Iron Loft Gym", Symbol: "IRON", Category: "fitness", Founder: "Kayla Stone", FounderRole: "Head coach", Pitch: "Memberships sold out, expanding to a second floor.", Revenue: usd(20_000), Expenses: usd(16_000), SetupCost: usd(45_000), SaleMultiple: 4.5, RevenueShare: 15, Multiple: 3.5},
	{ID: "saas", Name: "LedgerLeaf", Symbol: "LEAF", Category: "tech", Founder: "Priya Nair", FounderRole: "CEO", Pitch: "Bookkeeping SaaS, 40% net margins, raising a seed round.", Revenue: usd(60_000), Expenses: usd(35_000), SetupCost: usd(150_000), SaleMultiple: 8.0, RevenueShare: 12, Multiple: 6.0},
	{ID: "clinic", Name: "Northside Dental", Symbol: "DENT", Category: "health", Founder: "Dr. Omar Haddad", FounderRole: "Practice owner", Pitch: "Buying out a retiring partner, want a silent investor.", Revenue: usd(90_000), Expenses: usd(65_000), SetupCost: usd(220_000), SaleMultiple: 6.0, RevenueShare: 10, Multiple: 5.0},
	{ID: "brewery", Name: "Hopworks Brewery", Symbol: "HOPS", Category: "food", Founder: "Liam Walsh", FounderRole: "Brewmaster", Pitch: "Taproom is profitable, distribution deal on the table.", Revenue: usd(45_000), Expenses: usd(30_000), SetupCost: usd(80_000), SaleMultiple: 5.0, RevenueShare: 18, Multiple: 4.0},
	{ID: "ev_charging", Name: "VoltPark Charging", Symbol: "VOLT", Category: "energy", Founder: "Elena Petrova", FounderRole: "Founder", Pitch: "Fast chargers along the interstate, city contract signed.", Revenue: usd(70_000), Expenses: usd(40_000), SetupCost: usd(300_000), SaleMultiple: 10.0, RevenueShare: 8, Multiple: 7.0},
	{ID: "biotech", Name: "Helix Seed Bio", Symbol: "HELX", Category: "health", Founder: "Dr. Ada Chen", FounderRole: "Chief scientist", Pitch: "Pre-revenue pipeline, licensing income already started.", Revenue: usd(25_000), Expenses: usd(20_000), SetupCost: usd(120_000), SaleMultiple: 12.0, RevenueShare: 6, Multiple: 8.0},
}

func templatesForSize(large bool) []businessTemplate {
	out := make([]businessTemplate, 0, len(businessCatalog))
	for _, t := range businessCatalog {
		if (t.SetupCost >= LargeOpportunityMicros) == large {
			out = append(out, t)
		}
	}
	return out
}

var seedQuotes = []Quote{
	{Symbol: "BTC", Name: "Bitcoin", Type: AssetCrypto, Price: usd(64_000)},
	{Symbol: "ETH", Name: "Ethereum", Type: AssetCrypto, Price: usd(3_200)},
	{Symbol: "SOL", Name: "Solana", Type: AssetCrypto, Price: usd(145)},
	{Symbol: "DOGE", Name: "Dogecoin", Type: AssetCrypto, Price: 120_000},
	{Symbol: "ADA", Name: "Cardano", Type: AssetCrypto, Price: 450_000},
	{Symbol: "LINK", Name: "Chainlink", Type: AssetCrypto, Price: usd(14)},
	{Symbol: "AAPL", Name: "Apple", Type: AssetStock, Price: usd(190)},
	{Symbol: "MSFT", Name: "Microsoft", Type: AssetStock, Price: usd(420)},
	{Symbol: "NVDA", Name: "Nvidia", Type: AssetStock, Price: usd(880)},
	{Symbol: "TSLA", Name: "Tesla", Type: AssetStock, Price: usd(175)},
	{Symbol: "AMZN", Name: "Amazon", Type: AssetStock, Price: usd(180)},
	{Symbol: "KO", Name: "Coca-Cola", Type: AssetStock, Price: usd(60)},
	{Symbol: "JPM", Name: "JPMorgan Chase", Type: AssetStock, Price: usd(195)},
}

func defaultQuotes() []Quote {
	return append([]Quote(nil), seedQuotes...)
}

type contact struct {
	ID   string
	Name string
	Role string
}

var (
	contactBank      = contact{ID: "bank", Name: "First Harbor Bank", Role: "Bank"}
	contactMentor    = contact{ID: "mentor", Name: "Grace Whitfield", Role: "Mentor"}
	contactAdvisor   = contact{ID: "advisor", Name: "Sam Okafor", Role: "Financial advisor"}
	contactFamily    = contact{ID: "family", Name: "Mom", Role: "Family"}
	contactCryptoBro = contact{ID: "crypto_bro", Name: "Tyler \"Diamond Hands\" Vance", Role: "Crypto enthusiast"}
)

func founderContact(t businessTemplate) contact {
	return contact{ID: "founder-" + t.ID, Name: t.Founder, Role: t.FounderRole}
}

var surpriseExpenses = []ExpenseItem{
	{Name: "Car repair", Amount: usd(850)},
	{Name: "Dentist visit", Amount: usd(400)},
	{Name: "Broken laptop", Amount: usd(1_200)},
	{Name: "Vet bill", Amount: usd(650)},
	{Name: "Parking tickets", Amount: usd(180)},
	{Name: "Wedding gift", Amount: usd(300)},
	{Name: "Water heater", Amount: usd(1_500)},
}

var (
	fillerAuthors = []string{"Ava Reyes", "Noah Kim", "Lena Fischer", "Omar Said", "Maya Patel", "Theo Grant", "Zara Ali", "Evan Brooks", "Nora Lind", "Kade Ross"}
	fillerLines   = []string{
		"Meal prepped for the whole week. My wallet thanks me.",
		"Anyone else checking their budget app way too often?",
		"Paid off my last credit card today!",
		"Rent went up again. Time to look at roommates.",
		"Hot take: the latte factor is overrated, income is the lever.",
		"Finally opened a high-yield savings account.",
		"Side hustle made its first $100 this month.",
		"Reading about index funds instead of sleeping.",
		"Negotiated a raise. Always ask!",
		"Spent the weekend fixing the car myself, saved $400.",
		"Net worth tracker says I'm up this quarter.",
		"Cancelled three subscriptions I forgot I had.",
	}
)

func handleFor(name string) string {
	return "@" + sanitizeHandle(name)
}

// onboardingScript is injected whenever a loaded or new game has no messages.
func onboardingScript() []struct {
	From    contact
	Content string
} {
	return []struct {
		From    contact
		Content string
	}{
		{contactMentor, "Welcome! The goal is simple: make your passive income cover your expenses. I'll check in as you go."},
		{contactBank, "Your checking, savings and credit accounts are open. Payday lands every few days."},
		{contactAdvisor, "Tip: keep a cash cushion before you buy into businesses. Offers expire if you wait too long."},
		{contactMentor, "When a deal lands in your inbox, read the numbers: cashflow times your share is what you keep."},
	}
}
