// Package chat parses chat-style command lines and drives the access service.
// It is transport agnostic: callers supply the caller ID and a reply sink.
package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driving"
	"github.com/custodia-labs/tollgate/internal/logger"
)

// expiryLayout is how grant expiries are shown.
const expiryLayout = "2006-01-02 15:04:05 UTC"

// storeFailureReply is sent when a store failure left nothing changed.
const storeFailureReply = "Something went wrong saving that. Nothing was changed, please try again."

// unrecoveredReply is sent for any other failure, where some effects may
// have persisted.
const unrecoveredReply = "Something went wrong and could not be undone. Please contact an administrator."

// command is one entry in the command table.
type command struct {
	usage   string
	summary string
	run     func(ctx context.Context, d *Dispatcher, callerID string, args []string) (string, error)
}

// Dispatcher routes command lines to the access service.
type Dispatcher struct {
	access   driving.AccessService
	commands map[string]command
	now      func() time.Time
}

// NewDispatcher creates a dispatcher over access.
func NewDispatcher(access driving.AccessService) *Dispatcher {
	return &Dispatcher{
		access:   access,
		commands: commandTable(),
		now:      time.Now,
	}
}

func commandTable() map[string]command {
	return map[string]command{
		"issue": {
			usage:   "issue <amount> <hour|day|week>",
			summary: "mint a licence token (operators)",
			run:     runIssue,
		},
		"redeem": {
			usage:   "redeem <token>",
			summary: "redeem a token for access",
			run:     runRedeem,
		},
		"status": {
			usage:   "status",
			summary: "show your access",
			run:     runStatus,
		},
		"balance": {
			usage:   "balance",
			summary: "show your credit balance (operators)",
			run:     runBalance,
		},
		"set-access": {
			usage:   "set-access <subject> <amount> <hour|day|week>",
			summary: "overwrite a subject's access from now (privileged)",
			run:     runSetAccess,
		},
		"revoke": {
			usage:   "revoke <subject>",
			summary: "remove a subject's access (operators)",
			run:     runRevoke,
		},
		"add-operator": {
			usage:   "add-operator <id> <balance>",
			summary: "create or reset an operator (privileged)",
			run:     runAddOperator,
		},
		"remove-operator": {
			usage:   "remove-operator <id>",
			summary: "delete an operator (privileged)",
			run:     runRemoveOperator,
		},
		"list-grants": {
			usage:   "list-grants",
			summary: "list active grants (privileged)",
			run:     runListGrants,
		},
		"list-operators": {
			usage:   "list-operators",
			summary: "list operators and balances (privileged)",
			run:     runListOperators,
		},
		"list-tokens": {
			usage:   "list-tokens",
			summary: "list unredeemed tokens (privileged)",
			run:     runListTokens,
		},
		"help": {
			usage:   "help",
			summary: "show this message",
			run: func(_ context.Context, d *Dispatcher, _ string, _ []string) (string, error) {
				return d.Help(), nil
			},
		},
	}
}

// Handle parses line and sends exactly one reply for it. A leading slash is
// accepted. The returned error is non-nil only for failures that are not
// rejections, after the caller has been told to retry.
func (d *Dispatcher) Handle(ctx context.Context, callerID, line string, reply func(string)) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	// Chat clients may append @botname to commands.
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}

	cmd, ok := d.commands[name]
	if !ok {
		reply(fmt.Sprintf("Unknown command %q.\n\n%s", fields[0], d.Help()))
		return nil
	}

	logger.Debug("chat: %s from %s", name, callerID)
	text, err := cmd.run(ctx, d, callerID, fields[1:])
	switch {
	case err == nil:
		reply(text)
		return nil
	case errors.Is(err, errUsage):
		reply("Usage: " + cmd.usage)
		return nil
	case domain.IsRejection(err):
		reply(rejection(err))
		return nil
	default:
		logger.WithFields(logger.Fields{"command": name, "caller": callerID}).
			Errorf("command failed: %v", err)
		reply(failureReply(err))
		return err
	}
}

// Help lists the commands.
func (d *Dispatcher) Help() string {
	names := make([]string, 0, len(d.commands))
	for name := range d.commands {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	b.WriteString("Commands:")
	for _, name := range names {
		cmd := d.commands[name]
		fmt.Fprintf(&b, "\n  /%-32s %s", cmd.usage, cmd.summary)
	}
	return b.String()
}

var errUsage = errors.New("usage")

// failureReply promises a clean retry only when the store reported that
// nothing took effect.
func failureReply(err error) string {
	if errors.Is(err, domain.ErrStoreIO) && !errors.Is(err, domain.ErrUnrecovered) {
		return storeFailureReply
	}
	return unrecoveredReply
}

// rejection renders a domain rejection for the caller.
func rejection(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "You are not allowed to do that."
	case errors.Is(err, domain.ErrTokenAlreadyRedeemed):
		return "That token has already been redeemed."
	case errors.Is(err, domain.ErrTokenNotFound):
		return "That token does not exist."
	case errors.Is(err, domain.ErrRateLimited):
		return "Too many attempts. Wait a minute and try again."
	default:
		msg := err.Error()
		return strings.ToUpper(msg[:1]) + msg[1:] + "."
	}
}

func runIssue(ctx context.Context, d *Dispatcher, callerID string, args []string) (string, error) {
	if len(args) != 2 {
		return "", errUsage
	}
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a whole number", domain.ErrInvalidAmount, args[0])
	}

	res, err := d.access.IssueLicense(ctx, callerID, amount, args[1])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Token: %s\nPlan: %s\nCharged: %d\nBalance: %s",
		res.Token.Token, res.Token.Plan, res.Price, res.Remaining), nil
}

func runRedeem(ctx context.Context, d *Dispatcher, callerID string, args []string) (string, error) {
	if len(args) != 1 {
		return "", errUsage
	}
	grant, err := d.access.RedeemLicense(ctx, callerID, args[0])
	if err != nil {
		return "", err
	}
	return "Redeemed. " + d.describeGrant(grant), nil
}

func runStatus(ctx context.Context, d *Dispatcher, callerID string, _ []string) (string, error) {
	grant, err := d.access.Status(ctx, callerID)
	if errors.Is(err, domain.ErrNotFound) {
		return "You have no active access.", nil
	}
	if err != nil {
		return "", err
	}
	return d.describeGrant(grant), nil
}

func runBalance(ctx context.Context, d *Dispatcher, callerID string, _ []string) (string, error) {
	bal, err := d.access.Balance(ctx, callerID)
	if err != nil {
		return "", err
	}
	return "Balance: " + bal.String(), nil
}

func runSetAccess(ctx context.Context, d *Dispatcher, callerID string, args []string) (string, error) {
	if len(args) != 3 {
		return "", errUsage
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a whole number", domain.ErrInvalidAmount, args[1])
	}

	grant, err := d.access.SetAccess(ctx, callerID, args[0], amount, args[2])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: %s", grant.SubjectID, d.describeGrant(grant)), nil
}

func runRevoke(ctx context.Context, d *Dispatcher, callerID string, args []string) (string, error) {
	if len(args) != 1 {
		return "", errUsage
	}
	if err := d.access.Revoke(ctx, callerID, args[0]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Access for %s revoked.", args[0]), nil
}

func runAddOperator(ctx context.Context, d *Dispatcher, callerID string, args []string) (string, error) {
	if len(args) != 2 {
		return "", errUsage
	}
	balance, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a whole number", domain.ErrInvalidAmount, args[1])
	}
	acct, err := d.access.AddOperator(ctx, callerID, args[0], balance)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Operator %s now has %d credits.", acct.ID, acct.Balance), nil
}

func runRemoveOperator(ctx context.Context, d *Dispatcher, callerID string, args []string) (string, error) {
	if len(args) != 1 {
		return "", errUsage
	}
	if err := d.access.RemoveOperator(ctx, callerID, args[0]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Operator %s removed.", args[0]), nil
}

func runListGrants(ctx context.Context, d *Dispatcher, callerID string, _ []string) (string, error) {
	grants, err := d.access.ListActiveGrants(ctx, callerID)
	if err != nil {
		return "", err
	}
	if len(grants) == 0 {
		return "No active grants.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active grants (%d):", len(grants))
	for _, g := range grants {
		fmt.Fprintf(&b, "\n  %s  %s  until %s", g.SubjectID, g.Plan, g.ValidUntil.UTC().Format(expiryLayout))
	}
	return b.String(), nil
}

func runListTokens(ctx context.Context, d *Dispatcher, callerID string, _ []string) (string, error) {
	tokens, err := d.access.ListTokens(ctx, callerID)
	if err != nil {
		return "", err
	}
	if len(tokens) == 0 {
		return "No unredeemed tokens.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Unredeemed tokens (%d):", len(tokens))
	for _, t := range tokens {
		fmt.Fprintf(&b, "\n  %s  %s  by %s", t.Token, t.Plan, t.IssuedBy)
	}
	return b.String(), nil
}

func runListOperators(ctx context.Context, d *Dispatcher, callerID string, _ []string) (string, error) {
	accounts, err := d.access.ListOperators(ctx, callerID)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "No operators.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Operators (%d):", len(accounts))
	for _, a := range accounts {
		fmt.Fprintf(&b, "\n  %s  %d credits  added by %s", a.ID, a.Balance, a.AddedBy)
	}
	return b.String(), nil
}

func (d *Dispatcher) describeGrant(g *domain.AccessGrant) string {
	return fmt.Sprintf("Access valid until %s (%s).",
		g.ValidUntil.UTC().Format(expiryLayout),
		humanize.RelTime(g.ValidUntil, d.now(), "ago", "from now"))
}
