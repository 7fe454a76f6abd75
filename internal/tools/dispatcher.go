package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/davefmurray/gmail-slack-bot/internal/logging"
	"github.com/davefmurray/gmail-slack-bot/internal/mailbox"
)

const (
	// failureMarker prefixes every failure line handed back to the model.
	failureMarker = "⚠️"

	defaultCount = 5
	minCount     = 1
	maxCount     = 10
)

// Dispatcher executes model-requested tool invocations against the mailbox
// service. Execute is a total function: every call, known or not, successful
// or not, yields a string for the model; errors never cross this boundary.
type Dispatcher struct {
	mail mailbox.Service
	log  *logging.Logger
}

// NewDispatcher creates a dispatcher over the given mailbox.
func NewDispatcher(mail mailbox.Service, log *logging.Logger) *Dispatcher {
	return &Dispatcher{mail: mail, log: log.Component("tools")}
}

// Execute runs the named tool with the given JSON arguments and returns the
// textual result fed back to the model.
func (d *Dispatcher) Execute(ctx context.Context, name string, input json.RawMessage) string {
	args := map[string]any{}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return fmt.Sprintf("%s Invalid arguments for %s: %v", failureMarker, name, err)
		}
	}

	d.log.Debug().Str("tool", name).Msg("executing tool")

	switch name {
	case "list_recent_emails":
		return d.listRecent(ctx, args)
	case "search_emails":
		return d.search(ctx, args)
	case "get_email":
		return d.getEmail(ctx, args)
	case "send_email":
		return d.sendEmail(ctx, args)
	case "mark_read":
		return d.flagOp(ctx, args, "marked as read", d.mail.MarkRead)
	case "trash_email":
		return d.flagOp(ctx, args, "moved to trash", d.mail.Trash)
	case "star_email":
		return d.flagOp(ctx, args, "starred", d.mail.Star)
	case "unstar_email":
		return d.flagOp(ctx, args, "unstarred", d.mail.Unstar)
	case "archive_email":
		return d.flagOp(ctx, args, "archived", d.mail.Archive)
	case "batch_modify_emails":
		return d.batchModify(ctx, args)
	case "create_label":
		return d.createLabel(ctx, args)
	case "delete_label":
		return d.deleteLabel(ctx, args)
	case "list_labels":
		return d.listLabels(ctx)
	case "find_marketing_emails":
		return d.findMarketing(ctx, args)
	case "get_unsubscribe_info":
		return d.unsubscribeInfo(ctx, args)
	default:
		d.log.Warn().Str("tool", name).Msg("unknown tool requested")
		return fmt.Sprintf("Unknown tool: %s", name)
	}
}

func (d *Dispatcher) listRecent(ctx context.Context, args map[string]any) string {
	count := countArg(args, "count")
	emails, err := d.mail.ListRecent(ctx, count)
	if err != nil {
		return fmt.Sprintf("%s Failed to list emails: %v", failureMarker, err)
	}
	return FormatList(emails)
}

func (d *Dispatcher) search(ctx context.Context, args map[string]any) string {
	query := stringArg(args, "query")
	if query == "" {
		return fmt.Sprintf("%s search_emails requires a query argument", failureMarker)
	}
	emails, err := d.mail.Search(ctx, query, countArg(args, "max_results"))
	if err != nil {
		return fmt.Sprintf("%s Search failed: %v", failureMarker, err)
	}
	return FormatList(emails)
}

func (d *Dispatcher) getEmail(ctx context.Context, args map[string]any) string {
	id := stringArg(args, "id")
	if id == "" {
		return fmt.Sprintf("%s get_email requires an id argument", failureMarker)
	}
	email, err := d.mail.GetByID(ctx, id)
	if err != nil {
		return fmt.Sprintf("%s Failed to read email: %v", failureMarker, err)
	}
	if email == nil {
		return fmt.Sprintf("%s Email not found: %s", failureMarker, id)
	}
	return FormatEmail(*email)
}

func (d *Dispatcher) sendEmail(ctx context.Context, args map[string]any) string {
	to := stringArg(args, "to")
	subject := stringArg(args, "subject")
	body := stringArg(args, "body")
	if to == "" || subject == "" || body == "" {
		return fmt.Sprintf("%s send_email requires to, subject and body arguments", failureMarker)
	}
	result, err := d.mail.Send(ctx, to, subject, body)
	if err != nil {
		return fmt.Sprintf("%s Failed to send email: %v", failureMarker, err)
	}
	if !result.OK {
		return fmt.Sprintf("%s Send rejected: %s", failureMarker, result.Reason)
	}
	return fmt.Sprintf("Email sent to %s.", to)
}

// flagOp handles the single-id status operations, which share a shape.
func (d *Dispatcher) flagOp(ctx context.Context, args map[string]any, verb string, op func(context.Context, string) (bool, error)) string {
	id := stringArg(args, "id")
	if id == "" {
		return fmt.Sprintf("%s This tool requires an id argument", failureMarker)
	}
	ok, err := op(ctx, id)
	if err != nil {
		return fmt.Sprintf("%s Operation failed: %v", failureMarker, err)
	}
	if !ok {
		return fmt.Sprintf("%s Email not found: %s", failureMarker, id)
	}
	return fmt.Sprintf("Email %s %s.", id, verb)
}

func (d *Dispatcher) batchModify(ctx context.Context, args map[string]any) string {
	ids := stringListArg(args, "ids")
	if len(ids) == 0 {
		return fmt.Sprintf("%s batch_modify_emails requires a non-empty ids argument", failureMarker)
	}
	add := stringListArg(args, "add_labels")
	remove := stringListArg(args, "remove_labels")
	ok, err := d.mail.BatchModify(ctx, ids, add, remove)
	if err != nil {
		return fmt.Sprintf("%s Batch modify failed: %v", failureMarker, err)
	}
	if !ok {
		return fmt.Sprintf("%s Batch modify rejected", failureMarker)
	}
	return fmt.Sprintf("Modified %d email(s).", len(ids))
}

func (d *Dispatcher) createLabel(ctx context.Context, args map[string]any) string {
	name := stringArg(args, "name")
	if name == "" {
		return fmt.Sprintf("%s create_label requires a name argument", failureMarker)
	}
	label, err := d.mail.CreateLabel(ctx, name)
	if err != nil {
		return fmt.Sprintf("%s Failed to create label: %v", failureMarker, err)
	}
	if label == nil {
		return fmt.Sprintf("%s Could not create label %q", failureMarker, name)
	}
	return fmt.Sprintf("Created label %s (ID: %s).", label.Name, label.ID)
}

func (d *Dispatcher) deleteLabel(ctx context.Context, args map[string]any) string {
	id := stringArg(args, "id")
	if id == "" {
		return fmt.Sprintf("%s delete_label requires an id argument", failureMarker)
	}
	ok, err := d.mail.DeleteLabel(ctx, id)
	if err != nil {
		return fmt.Sprintf("%s Failed to delete label: %v", failureMarker, err)
	}
	if !ok {
		return fmt.Sprintf("%s Label not found: %s", failureMarker, id)
	}
	return fmt.Sprintf("Deleted label %s.", id)
}

func (d *Dispatcher) listLabels(ctx context.Context) string {
	labels, err := d.mail.ListLabels(ctx)
	if err != nil {
		return fmt.Sprintf("%s Failed to list labels: %v", failureMarker, err)
	}
	return FormatLabels(labels)
}

func (d *Dispatcher) findMarketing(ctx context.Context, args map[string]any) string {
	infos, err := d.mail.FindMarketing(ctx, countArg(args, "max_results"))
	if err != nil {
		return fmt.Sprintf("%s Failed to find marketing emails: %v", failureMarker, err)
	}
	return FormatMarketingList(infos)
}

func (d *Dispatcher) unsubscribeInfo(ctx context.Context, args map[string]any) string {
	id := stringArg(args, "id")
	if id == "" {
		return fmt.Sprintf("%s get_unsubscribe_info requires an id argument", failureMarker)
	}
	info, err := d.mail.GetUnsubscribeInfo(ctx, id)
	if err != nil {
		return fmt.Sprintf("%s Failed to inspect email: %v", failureMarker, err)
	}
	if info == nil {
		return fmt.Sprintf("%s Email not found: %s", failureMarker, id)
	}
	return FormatUnsubscribeInfo(*info)
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// countArg normalizes a result-count argument into [minCount, maxCount],
// defaulting when absent or malformed.
func countArg(args map[string]any, key string) int {
	v, ok := args[key]
	if !ok {
		return defaultCount
	}
	var n int
	switch x := v.(type) {
	case float64: // JSON numbers decode as float64
		n = int(x)
	case string:
		if _, err := fmt.Sscanf(x, "%d", &n); err != nil {
			return defaultCount
		}
	default:
		return defaultCount
	}
	if n < minCount {
		return minCount
	}
	if n > maxCount {
		return maxCount
	}
	return n
}

func stringListArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
