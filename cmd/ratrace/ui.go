package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"golang.org/x/term"

	"ratrace/internal/game"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
	faint       = color.New(color.Faint)
)

func printSuccess(msg string) { success.Println(msg) }
func printWarn(msg string)    { warn.Println(msg) }
func printError(msg string)   { danger.Fprintln(os.Stderr, msg) }
func printInfo(msg string)    { neutral.Println(msg) }

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func promptOptional(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	if !isInteractive() {
		return "", fmt.Errorf("%s is required (pass it as a flag when stdin is not a terminal)", strings.ToLower(label))
	}
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

// confirm assumes yes when there is nobody to ask.
func confirm(question string) (bool, error) {
	if !isInteractive() {
		return true, nil
	}
	answer, err := promptChoice(question, []string{"y", "n"}, "n")
	if err != nil {
		return false, err
	}
	return answer == "y", nil
}

// parseUSD reads a dollar amount such as "1200" or "1,250.50" into micros.
func parseUSD(s string) (int64, error) {
	s = strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), "$")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if !d.IsPositive() {
		return 0, game.ErrInvalidAmount
	}
	return d.Shift(6).Round(0).IntPart(), nil
}

func parseQty(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	if !d.IsPositive() {
		return 0, fmt.Errorf("quantity must be > 0")
	}
	units := d.Shift(8).Round(0).IntPart()
	if units <= 0 {
		return 0, fmt.Errorf("quantity %s is below the smallest unit", s)
	}
	return units, nil
}

func decodeInto[T any](in any) (T, error) {
	var out T
	raw, err := json.Marshal(in)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func colorizeMicros(v int64) string {
	text := game.FormatUSD(v)
	switch {
	case v > 0:
		return success.Sprint("+" + text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func formatQty(units int64) string {
	return decimal.New(units, -8).String()
}

func renderDashboard(raw map[string]any) error {
	d, err := decodeInto[game.Dashboard](raw)
	if err != nil {
		return err
	}

	accent.Printf("\n== %s, %s (%s) ==\n", d.Player.Name, d.Role.Title, d.GameDate.Format("Jan 2006"))
	fmt.Printf("Checking:          %s\n", game.FormatUSD(d.Accounts.Checking))
	fmt.Printf("Savings:           %s\n", game.FormatUSD(d.Accounts.Savings))
	if d.Accounts.FamilyTrust > 0 {
		fmt.Printf("Family trust:      %s\n", game.FormatUSD(d.Accounts.FamilyTrust))
	}
	if owed := d.Accounts.CreditStandard + d.Accounts.CreditPlatinum + d.Accounts.CreditBlack; owed > 0 {
		fmt.Printf("Card balance:      %s\n", danger.Sprint(game.FormatUSD(owed)))
	}
	fmt.Printf("Net worth:         %s\n", game.FormatUSD(d.NetWorth))
	fmt.Printf("Income / month:    %s (salary %s, passive %s)\n",
		game.FormatUSD(d.MonthlyIncome), game.FormatUSD(d.MonthlySalary), game.FormatUSD(d.PassiveIncome))
	fmt.Printf("Expenses / month:  %s\n", game.FormatUSD(d.MonthlyExpenses))
	fmt.Printf("Cashflow / month:  %s\n", colorizeMicros(d.MonthlyCashflow))
	if d.OutOfRatRace {
		success.Println("You are out of the rat race.")
	}
	if d.Goal.Title != "" {
		line := fmt.Sprintf("Goal: %s, %s of %s passive (%.1f%%)", d.Goal.Title,
			game.FormatUSD(d.Goal.PassiveIncome), game.FormatUSD(d.Goal.TargetPassiveIncome), d.Goal.Percent)
		if d.Goal.Reached {
			success.Println(line)
		} else {
			fmt.Println(line)
		}
	}
	if d.UnreadMessages > 0 {
		warn.Printf("%d unread message(s)\n", d.UnreadMessages)
	}

	fmt.Println()
	accent.Println("Positions")
	if len(d.Positions) == 0 {
		printInfo("No open positions yet.")
	} else {
		fmt.Printf("%-8s %-18s %16s %14s %14s %16s\n", "SYMBOL", "NAME", "QTY", "AVG", "NOW", "P/L")
		for _, p := range d.Positions {
			fmt.Printf("%-8s %-18s %16s %14s %14s %16s\n",
				p.Symbol,
				truncate(p.Name, 18),
				formatQty(p.QuantityUnits),
				game.FormatUSD(p.AvgPriceMicros),
				game.FormatUSD(p.CurrentPrice),
				colorizeMicros(p.UnrealizedMicros),
			)
		}
	}

	fmt.Println()
	accent.Println("Businesses")
	if len(d.Businesses) == 0 {
		printInfo("No businesses yet. Watch your messages for offers.")
	} else {
		fmt.Printf("%-36s %-18s %12s %12s %8s %14s\n", "ID", "NAME", "CASHFLOW", "DIVIDEND", "MULT", "IF SOLD")
		for _, b := range d.Businesses {
			fmt.Printf("%-36s %-18s %12s %12s %7.1fx %14s\n",
				b.ID,
				truncate(b.Name, 18),
				game.FormatUSD(b.MonthlyCashflow),
				game.FormatUSD(b.MonthlyDividend),
				b.ExitMultiple,
				game.FormatUSD(b.PlayerProceeds),
			)
		}
	}
	if d.ExitPrompt != nil {
		fmt.Println()
		warn.Printf("Buyer offering %.1fx for %s: you would take %s. `ratrace exit %s` or `ratrace keep`.\n",
			d.ExitPrompt.Multiple, d.ExitPrompt.Name, game.FormatUSD(d.ExitPrompt.Proceeds), d.ExitPrompt.BusinessID)
	}
	return nil
}

func renderRefresh(raw map[string]any) error {
	out, err := decodeInto[struct {
		Report     game.RefreshReport `json:"report"`
		Unread     int                `json:"unread_messages"`
		ExitPrompt *game.ExitPrompt   `json:"exit_prompt"`
	}](raw)
	if err != nil {
		return err
	}
	rep := out.Report
	accent.Printf("\n== Cycle %d: %s ==\n", rep.Cycle, strings.ReplaceAll(string(rep.DayType), "_", " "))
	if rep.Payday {
		success.Println("Payday! A month has been booked.")
	}
	if rep.LeveledUp {
		success.Println("Passive income covers your expenses. Welcome to the wealth stage.")
	}
	if rep.Opportunities > 0 {
		fmt.Printf("%d new opportunity item(s).\n", rep.Opportunities)
	}
	if rep.Expired > 0 {
		faint.Printf("%d offer(s) expired.\n", rep.Expired)
	}
	if out.Unread > 0 {
		warn.Printf("%d unread message(s).\n", out.Unread)
	}
	if out.ExitPrompt != nil {
		warn.Printf("Exit offer on %s at %.1fx.\n", out.ExitPrompt.Name, out.ExitPrompt.Multiple)
	}
	return nil
}

func renderFeed(raw map[string]any, limit int) error {
	out, err := decodeInto[struct {
		Posts []game.Post `json:"posts"`
	}](raw)
	if err != nil {
		return err
	}
	fmt.Println()
	accent.Println("Feed")
	if len(out.Posts) == 0 {
		printInfo("Nothing yet. Run `ratrace refresh`.")
		return nil
	}
	for i, p := range out.Posts {
		if limit > 0 && i >= limit {
			faint.Printf("... %d more\n", len(out.Posts)-limit)
			break
		}
		who := neutral.Sprint(p.Author)
		if p.FromPlayer {
			who = success.Sprint(p.Author)
		}
		fmt.Printf("%s %s\n  %s\n", who, faint.Sprint(p.Handle), p.Content)
		for _, m := range p.MediaRefs {
			faint.Printf("  [%s]\n", m)
		}
	}
	return nil
}

func renderQuotes(raw map[string]any) error {
	out, err := decodeInto[struct {
		Quotes []game.Quote `json:"quotes"`
	}](raw)
	if err != nil {
		return err
	}
	fmt.Printf("%-8s %-22s %-8s %16s\n", "SYMBOL", "NAME", "TYPE", "PRICE")
	for _, q := range out.Quotes {
		fmt.Printf("%-8s %-22s %-8s %16s\n", q.Symbol, truncate(q.Name, 22), q.Type, game.FormatUSD(q.Price))
	}
	return nil
}

func renderOrderResult(raw map[string]any, side, symbol string, qty int64) error {
	if side == "sell" {
		proceeds, _ := raw["proceeds_micros"].(float64)
		printSuccess(fmt.Sprintf("Sold %s %s for %s.", formatQty(qty), symbol, game.FormatUSD(int64(proceeds))))
		return nil
	}
	out, err := decodeInto[struct {
		Asset game.Asset `json:"asset"`
	}](raw)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Bought %s %s. Holding %s at avg %s.",
		formatQty(qty), symbol, formatQty(out.Asset.Quantity), game.FormatUSD(out.Asset.PurchasePrice)))
	return nil
}

func renderTransactions(raw map[string]any) error {
	out, err := decodeInto[struct {
		Transactions []game.Transaction `json:"transactions"`
	}](raw)
	if err != nil {
		return err
	}
	if len(out.Transactions) == 0 {
		printInfo("No transactions yet.")
		return nil
	}
	for _, t := range out.Transactions {
		amount := -t.Amount
		if t.IsIncome {
			amount = t.Amount
		}
		fmt.Printf("%s  %-16s %-34s %14s\n", t.Date.Format("2006-01-02"), t.Account, truncate(t.Description, 34), colorizeMicros(amount))
	}
	return nil
}

func renderOffers(raw map[string]any) error {
	out, err := decodeInto[struct {
		Offers []game.Message `json:"offers"`
	}](raw)
	if err != nil {
		return err
	}
	if len(out.Offers) == 0 {
		printInfo("No open offers. They arrive with each refresh.")
		return nil
	}
	for _, m := range out.Offers {
		b := m.Opportunity
		if b == nil {
			continue
		}
		accent.Printf("%s  (%s)\n", b.Name, m.ID)
		fmt.Printf("  from %s: %s\n", m.SenderName, m.Content)
		fmt.Printf("  setup %s, revenue %s, expenses %s, your share %.0f%%\n",
			game.FormatUSD(b.SetupCost), game.FormatUSD(b.Revenue), game.FormatUSD(b.Expenses), b.RevenueShare*100)
	}
	return nil
}

func renderBusinessAcquired(raw map[string]any) error {
	out, err := decodeInto[struct {
		Business game.Business `json:"business"`
	}](raw)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("You now own %.0f%% of %s (%s).", out.Business.RevenueShare*100, out.Business.Name, out.Business.ID))
	return nil
}

func renderMessages(raw map[string]any) error {
	out, err := decodeInto[struct {
		Messages []game.Message `json:"messages"`
	}](raw)
	if err != nil {
		return err
	}
	if len(out.Messages) == 0 {
		printInfo("Inbox is empty.")
		return nil
	}
	for _, m := range out.Messages {
		marker := " "
		if !m.Read {
			marker = warn.Sprint("*")
		}
		status := ""
		if m.Status != game.StatusNone {
			status = faint.Sprintf(" [%s]", m.Status)
		}
		fmt.Printf("%s %-14s %-12s %s%s\n", marker, truncate(m.SenderName, 14), ago(m.Timestamp), truncate(m.Content, 60), status)
	}
	return nil
}

func renderThread(raw map[string]any) error {
	out, err := decodeInto[struct {
		Messages []game.Message `json:"messages"`
	}](raw)
	if err != nil {
		return err
	}
	for _, m := range out.Messages {
		who := accent.Sprint(m.SenderName)
		if m.FromPlayer {
			who = success.Sprint("You")
		}
		fmt.Printf("%s %s\n  %s\n", who, faint.Sprint(m.Timestamp.Format("Jan 2 15:04")), m.Content)
		if m.Opportunity != nil && m.Status == game.StatusPending {
			faint.Printf("  ratrace respond %s accept|decline\n", m.ID)
		}
	}
	return nil
}

func ago(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("Jan 2")
	}
}
