package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cl "ratrace/internal/cli"
	"ratrace/internal/config"
	"ratrace/internal/game"
	"ratrace/internal/syncq"
)

// app carries what every subcommand needs: where the API lives and the
// offline queue for writes that could not reach it.
type app struct {
	apiBase string
	token   string
}

func main() {
	cfg := config.LoadCLIFromEnv()
	a := &app{apiBase: cfg.APIBaseURL, token: cfg.Token}
	if sess, err := cl.LoadSession(); err == nil {
		if sess.APIBaseURL != "" && os.Getenv("RATRACE_API_BASE_URL") == "" {
			a.apiBase = sess.APIBaseURL
		}
		if sess.Token != "" && a.token == "" {
			a.token = sess.Token
		}
	}

	root := &cobra.Command{
		Use:          "ratrace",
		Short:        "Rat Race life-sim client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.apiBase, "api", a.apiBase, "API base URL")

	root.AddCommand(
		a.newConnectCmd(),
		a.newGameCmd(),
		a.newDashCmd(),
		a.newRefreshCmd(),
		a.newFeedCmd(),
		a.newPostCmd(),
		a.newQuotesCmd(),
		a.newOrderCmd("buy"),
		a.newOrderCmd("sell"),
		a.newTransferCmd(),
		a.newPayCmd(),
		a.newTxCmd(),
		a.newOffersCmd(),
		a.newRespondCmd(),
		a.newSellBusinessCmd(),
		a.newKeepCmd(),
		a.newMessagesCmd(),
		a.newThreadCmd(),
		a.newArchiveCmd(),
		a.newSyncCmd(),
	)

	if err := root.Execute(); err != nil {
		printError(fmt.Sprintf("error: %v", err))
		os.Exit(1)
	}
}

func (a *app) client() *cl.Client {
	return cl.NewClient(strings.TrimSpace(a.apiBase), a.token)
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func (a *app) newConnectCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Remember the API host (and token) for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token != "" {
				a.token = token
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			if _, err := a.client().Dashboard(ctx); err != nil {
				return fmt.Errorf("cannot reach %s: %w", a.apiBase, err)
			}
			if err := cl.SaveSession(cl.Session{APIBaseURL: a.apiBase, Token: a.token}); err != nil {
				return err
			}
			printSuccess("Connected to " + a.apiBase)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "API bearer token")
	return cmd
}

func (a *app) newGameCmd() *cobra.Command {
	var roleID, goalID, name, handle string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new game",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if roleID == "" {
				if roleID, err = promptChoice("Role", roleIDs(), game.Roles[0].ID); err != nil {
					return err
				}
			}
			if goalID == "" {
				if goalID, err = promptChoice("Goal", goalIDs(), game.Goals[0].ID); err != nil {
					return err
				}
			}
			if name == "" && isInteractive() {
				if name, err = promptOptional("Name (optional)"); err != nil {
					return err
				}
			}
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().NewGame(ctx, roleID, goalID, name, handle, uuid.NewString())
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Welcome, %v (%v). Check your messages.", out["name"], out["handle"]))
			return nil
		},
	}
	cmd.Flags().StringVar(&roleID, "role", "", "role id")
	cmd.Flags().StringVar(&goalID, "goal", "", "goal id")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&handle, "handle", "", "feed handle")
	return cmd
}

func (a *app) newDashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Show your dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().Dashboard(ctx)
			if err != nil {
				return err
			}
			return renderDashboard(out)
		},
	}
}

func (a *app) newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Advance the world by one cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			c := a.client()
			out, err := c.Refresh(ctx)
			if err != nil {
				return err
			}
			if err := renderRefresh(out); err != nil {
				return err
			}
			feed, err := c.Feed(ctx)
			if err != nil {
				return err
			}
			return renderFeed(feed, 8)
		},
	}
}

func (a *app) newFeedCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the current feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().Feed(ctx)
			if err != nil {
				return err
			}
			return renderFeed(out, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "posts to show")
	return cmd
}

func (a *app) newPostCmd() *cobra.Command {
	var media []string
	cmd := &cobra.Command{
		Use:   "post [text]",
		Short: "Share a post; it tops the feed on the next refresh",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) > 0 {
				text = args[0]
			}
			idem := uuid.NewString()
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			if _, err := a.client().AddPost(ctx, text, media, idem); err != nil {
				return a.queueOnNetworkError(err, syncq.Command{
					Method:         "POST",
					Path:           "/v1/posts",
					Body:           cl.PostBody(text, media),
					IdempotencyKey: idem,
				})
			}
			printSuccess("Posted. It shows up after the next refresh.")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&media, "media", nil, "media references to attach")
	return cmd
}

func (a *app) newQuotesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quotes",
		Short: "List market prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().Quotes(ctx)
			if err != nil {
				return err
			}
			return renderQuotes(out)
		},
	}
}

func (a *app) newOrderCmd(side string) *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   side + " SYMBOL QTY",
		Short: strings.ToUpper(side[:1]) + side[1:] + " a stock or coin at the quoted price",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))
			if err := game.ValidateSymbol(symbol); err != nil {
				return err
			}
			qty, err := parseQty(args[1])
			if err != nil {
				return err
			}
			idem := uuid.NewString()
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().PlaceOrder(ctx, symbol, side, account, idem, qty)
			if err != nil {
				return a.queueOnNetworkError(err, syncq.Command{
					Method:         "POST",
					Path:           "/v1/orders",
					Body:           cl.OrderBody(symbol, side, account, qty),
					IdempotencyKey: idem,
				})
			}
			return renderOrderResult(out, side, symbol, qty)
		},
	}
	if side == "buy" {
		cmd.Flags().StringVar(&account, "account", "", "pay from checking (default) or a credit card")
	}
	return cmd
}

func (a *app) newTransferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer FROM TO AMOUNT",
		Short: "Move dollars between checking and savings",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseUSD(args[2])
			if err != nil {
				return err
			}
			idem := uuid.NewString()
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			if _, err := a.client().Transfer(ctx, args[0], args[1], idem, amount); err != nil {
				return a.queueOnNetworkError(err, syncq.Command{
					Method:         "POST",
					Path:           "/v1/transfer",
					Body:           map[string]any{"from": args[0], "to": args[1], "amount_micros": amount},
					IdempotencyKey: idem,
				})
			}
			printSuccess(fmt.Sprintf("Moved %s from %s to %s.", game.FormatUSD(amount), args[0], args[1]))
			return nil
		},
	}
}

func (a *app) newPayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay CARD AMOUNT",
		Short: "Pay down a credit card from checking",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseUSD(args[1])
			if err != nil {
				return err
			}
			idem := uuid.NewString()
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().PayCredit(ctx, args[0], idem, amount)
			if err != nil {
				return a.queueOnNetworkError(err, syncq.Command{
					Method:         "POST",
					Path:           "/v1/credit/pay",
					Body:           map[string]any{"card": args[0], "amount_micros": amount},
					IdempotencyKey: idem,
				})
			}
			paid, _ := out["paid_micros"].(float64)
			printSuccess(fmt.Sprintf("Paid %s on %s.", game.FormatUSD(int64(paid)), args[0]))
			return nil
		},
	}
}

func (a *app) newTxCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Recent transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().Transactions(ctx, limit)
			if err != nil {
				return err
			}
			return renderTransactions(out)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "rows to show")
	return cmd
}

func (a *app) newOffersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "offers",
		Short: "Pending investment offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().Offers(ctx)
			if err != nil {
				return err
			}
			return renderOffers(out)
		},
	}
}

func (a *app) newRespondCmd() *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "respond MESSAGE_ID accept|decline",
		Short: "Answer an investment offer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var accept bool
			switch strings.ToLower(args[1]) {
			case "accept", "yes", "y":
				accept = true
			case "decline", "no", "n":
			default:
				return fmt.Errorf("answer must be accept or decline")
			}
			idem := uuid.NewString()
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().RespondOffer(ctx, args[0], accept, account, idem)
			if err != nil {
				return a.queueOnNetworkError(err, syncq.Command{
					Method:         "POST",
					Path:           "/v1/offers/" + args[0] + "/respond",
					Body:           map[string]any{"accept": accept, "account": account},
					IdempotencyKey: idem,
				})
			}
			if !accept {
				printInfo("Offer declined.")
				return nil
			}
			return renderBusinessAcquired(out)
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "fund the setup cost from checking (default) or a credit card")
	return cmd
}

func (a *app) newSellBusinessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exit BUSINESS_ID",
		Short: "Sell your stake in a business at its current multiple",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirm("Sell this business now?")
			if err != nil {
				return err
			}
			if !ok {
				printInfo("Kept it.")
				return nil
			}
			idem := uuid.NewString()
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().SellBusiness(ctx, args[0], idem)
			if err != nil {
				return a.queueOnNetworkError(err, syncq.Command{
					Method:         "POST",
					Path:           "/v1/businesses/" + args[0] + "/sell",
					IdempotencyKey: idem,
				})
			}
			proceeds, _ := out["proceeds_micros"].(float64)
			printSuccess("Sold for " + game.FormatUSD(int64(proceeds)) + ".")
			return nil
		},
	}
}

func (a *app) newKeepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keep",
		Short: "Dismiss the current exit offer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			if _, err := a.client().DismissExitPrompt(ctx); err != nil {
				return err
			}
			printInfo("Exit offer dismissed.")
			return nil
		},
	}
}

func (a *app) newMessagesCmd() *cobra.Command {
	var archived bool
	cmd := &cobra.Command{
		Use:     "messages",
		Short:   "List messages, newest first",
		Aliases: []string{"inbox"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			out, err := a.client().Messages(ctx, archived)
			if err != nil {
				return err
			}
			return renderMessages(out)
		},
	}
	cmd.Flags().BoolVar(&archived, "archived", false, "show archived threads")
	return cmd
}

func (a *app) newThreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "thread CONTACT_ID",
		Short: "Read a conversation and mark it read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			c := a.client()
			out, err := c.Thread(ctx, args[0])
			if err != nil {
				return err
			}
			if err := renderThread(out); err != nil {
				return err
			}
			_, err = c.MarkThreadRead(ctx, args[0])
			return err
		},
	}
}

func (a *app) newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive MESSAGE_ID",
		Short: "Archive (or unarchive) the thread a message belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd)
			defer cancel()
			if _, err := a.client().ArchiveMessage(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Thread archive toggled.")
			return nil
		},
	}
}

func (a *app) newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay writes queued while the API was unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := openQueue()
			if err != nil {
				return err
			}
			pending, err := queue.Load()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			c := a.client()
			send := func(ctx context.Context, q syncq.Command) error {
				_, err := c.Do(ctx, q.Method, q.Path, q.Body, q.IdempotencyKey)
				return err
			}
			res, err := queue.Replay(ctx, send, cl.IsAPIError)
			for _, r := range res.Rejected {
				printWarn(fmt.Sprintf("Dropped %s %s: %v", r.Command.Method, r.Command.Path, r.Err))
			}
			if err != nil {
				printError(fmt.Sprintf("Sync stopped: %v", err))
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d dropped=%d remaining=%d", res.Sent, len(res.Rejected), res.Pending))
			return nil
		},
	}
}

func openQueue() (*syncq.Queue, error) {
	dir, err := cl.BaseDir()
	if err != nil {
		return nil, err
	}
	return syncq.Open(dir)
}

// queueOnNetworkError passes API refusals through and queues the write when
// the server could not be reached.
func (a *app) queueOnNetworkError(err error, cmd syncq.Command) error {
	if err == nil {
		return nil
	}
	if cl.IsAPIError(err) || errors.Is(err, context.Canceled) {
		return err
	}
	queue, qerr := openQueue()
	if qerr != nil {
		return fmt.Errorf("request failed and could not be queued: %w", errors.Join(err, qerr))
	}
	if _, qerr := queue.Push(cmd); qerr != nil {
		return fmt.Errorf("request failed and could not be queued: %w", errors.Join(err, qerr))
	}
	printWarn(fmt.Sprintf("API unreachable (%v). Queued %s %s; run `ratrace sync` later.", err, cmd.Method, cmd.Path))
	return nil
}

func roleIDs() []string {
	out := make([]string, 0, len(game.Roles))
	for _, r := range game.Roles {
		out = append(out, r.ID)
	}
	return out
}

func goalIDs() []string {
	out := make([]string, 0, len(game.Goals))
	for _, g := range game.Goals {
		out = append(out, g.ID)
	}
	return out
}
