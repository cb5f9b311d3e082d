// Package handler is the interactive command layer. It checks the shape of
// each command line and hands it to the service; every business decision
// is made there.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	models "marketplace/model"
	"marketplace/service"
)

// Handler dispatches command lines to service.ServiceInterface and keeps
// the seller session of the current client.
type Handler struct {
	svc      service.ServiceInterface
	out      io.Writer
	session  *models.Session
	commands map[string]command
}

type validator func(h *Handler, args []string) string

type command struct {
	validators []validator
	run        func(h *Handler, ctx context.Context, args []string) error
	// quiet commands print their own output on success
	quiet bool
}

// usageError is a malformed argument caught while parsing.
type usageError string

func (e usageError) Error() string { return string(e) }

// NewHandler returns a Handler writing its output to out.
func NewHandler(s service.ServiceInterface, out io.Writer) *Handler {
	h := &Handler{svc: s, out: out}
	h.registerCommands()
	return h
}

// Session is the signed-in seller, or nil.
func (h *Handler) Session() *models.Session { return h.session }

func (h *Handler) registerCommands() {
	h.commands = map[string]command{
		"help":              {validators: []validator{args(0)}, run: (*Handler).help, quiet: true},
		"sign_up":           {validators: []validator{args(3), signedOut}, run: (*Handler).signUp},
		"sign_in":           {validators: []validator{args(2), notOtherSeller}, run: (*Handler).signIn},
		"sign_out":          {validators: []validator{signedIn, args(0)}, run: (*Handler).signOut},
		"show_plans":        {validators: []validator{args(0)}, run: (*Handler).showPlans, quiet: true},
		"show_subscription": {validators: []validator{signedIn, args(0)}, run: (*Handler).showSubscription, quiet: true},
		"change_stock":      {validators: []validator{signedIn, args(3)}, run: (*Handler).changeStock},
		"subscribe":         {validators: []validator{signedIn, args(1)}, run: (*Handler).subscribe},
		"ship":              {validators: []validator{atLeast(1)}, run: (*Handler).ship},
		"show_cart":         {validators: []validator{args(1)}, run: (*Handler).showCart, quiet: true},
		"change_cart":       {validators: []validator{args(5)}, run: (*Handler).changeCart},
		"purchase_cart":     {validators: []validator{args(1)}, run: (*Handler).purchaseCart},
	}
}

// Execute runs one command line and reports whether the client asked to
// quit.
func (h *Handler) Execute(ctx context.Context, line string) (quit bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return false
	}
	name, rest := tokens[0], tokens[1:]

	if name == "quit" {
		if len(rest) != 0 {
			h.println(msgInvalidArgs)
			return false
		}
		if err := h.svc.EndSession(ctx, h.session); err != nil {
			h.println(resultMessage(err))
		}
		h.session = nil
		h.println(msgBye)
		return true
	}

	cmd, ok := h.commands[name]
	if !ok {
		h.println(msgUnknownCommand)
		return false
	}
	for _, v := range cmd.validators {
		if msg := v(h, rest); msg != "" {
			h.println(msg)
			return false
		}
	}

	err := cmd.run(h, ctx, rest)
	var ue usageError
	if errors.As(err, &ue) {
		h.println(string(ue))
		return false
	}
	if err != nil || !cmd.quiet {
		h.println(resultMessage(err))
	}
	return false
}

func (h *Handler) println(a ...any) { fmt.Fprintln(h.out, a...) }

// ---- validators ----

func args(n int) validator {
	return func(_ *Handler, args []string) string {
		if len(args) != n {
			return fmt.Sprintf(msgWrongArgCount, n)
		}
		return ""
	}
}

func atLeast(n int) validator {
	return func(_ *Handler, args []string) string {
		if len(args) < n {
			return fmt.Sprintf(msgAtLeastArgs, n)
		}
		return ""
	}
}

func signedIn(h *Handler, _ []string) string {
	if h.session == nil {
		return msgNotAuthorized
	}
	return ""
}

func signedOut(h *Handler, _ []string) string {
	if h.session != nil {
		return msgAlreadySignedIn
	}
	return ""
}

func notOtherSeller(h *Handler, args []string) string {
	if h.session == nil {
		return ""
	}
	if h.session.SellerID == args[0] {
		return msgAlreadySignedIn
	}
	return msgOtherSignedIn
}

// ---- argument parsing ----

func parseDelta(direction, amount string) (int, error) {
	n, err := strconv.Atoi(amount)
	if err != nil || n <= 0 {
		return 0, usageError(msgBadAmount)
	}
	switch direction {
	case "add":
		return n, nil
	case "remove":
		return -n, nil
	}
	return 0, usageError(msgBadDirection)
}

func parsePlanID(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, usageError(msgBadPlanID)
	}
	return n, nil
}

// ---- commands ----

func (h *Handler) help(context.Context, []string) error {
	for _, line := range helpText {
		h.println(line)
	}
	return nil
}

func (h *Handler) signUp(ctx context.Context, args []string) error {
	planID, err := parsePlanID(args[2])
	if err != nil {
		return err
	}
	return h.svc.Register(ctx, args[0], args[1], planID)
}

func (h *Handler) signIn(ctx context.Context, args []string) error {
	sess, err := h.svc.SignIn(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	h.session = &sess
	return nil
}

func (h *Handler) signOut(ctx context.Context, _ []string) error {
	if err := h.svc.SignOut(ctx, *h.session); err != nil {
		return err
	}
	h.session = nil
	return nil
}

func (h *Handler) printPlans(plans ...models.Plan) {
	h.println("#|Name|Max Sessions")
	for _, p := range plans {
		h.println(fmt.Sprintf("%d|%s|%d", p.ID, p.Name, p.MaxParallelSessions))
	}
}

func (h *Handler) showPlans(ctx context.Context, _ []string) error {
	plans, err := h.svc.ListPlans(ctx)
	if err != nil {
		return err
	}
	h.printPlans(plans...)
	return nil
}

func (h *Handler) showSubscription(ctx context.Context, _ []string) error {
	plan, err := h.svc.CurrentSubscription(ctx, *h.session)
	if err != nil {
		return err
	}
	h.printPlans(plan)
	return nil
}

func (h *Handler) changeStock(ctx context.Context, args []string) error {
	delta, err := parseDelta(args[1], args[2])
	if err != nil {
		return err
	}
	_, err = h.svc.AdjustStock(ctx, *h.session, args[0], delta)
	return err
}

func (h *Handler) subscribe(ctx context.Context, args []string) error {
	planID, err := parsePlanID(args[0])
	if err != nil {
		return err
	}
	updated, err := h.svc.ChangePlan(ctx, *h.session, planID)
	if err != nil {
		return err
	}
	h.session = &updated
	return nil
}

func (h *Handler) ship(ctx context.Context, args []string) error {
	_, err := h.svc.Ship(ctx, args)
	return err
}

func (h *Handler) showCart(ctx context.Context, args []string) error {
	lines, err := h.svc.ShowCart(ctx, args[0])
	if err != nil {
		return err
	}
	h.println("Order Id|Seller Id|Product Id|Amount")
	for _, l := range lines {
		h.println(fmt.Sprintf("%s|%s|%s|%d", l.OrderID, l.SellerID, l.ProductID, l.Amount))
	}
	return nil
}

func (h *Handler) changeCart(ctx context.Context, args []string) error {
	delta, err := parseDelta(args[3], args[4])
	if err != nil {
		return err
	}
	return h.svc.ChangeCart(ctx, args[0], args[1], args[2], delta)
}

func (h *Handler) purchaseCart(ctx context.Context, args []string) error {
	_, err := h.svc.PurchaseCart(ctx, args[0])
	return err
}
