package notify

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"expenditure-workflow/internal/notify/domain"
	notifyrepo "expenditure-workflow/internal/notify/repository"
	roledomain "expenditure-workflow/internal/role/domain"
	"expenditure-workflow/internal/workflow"
)

// RoleDirectory is the minimal role lookup needed for recipient resolution.
type RoleDirectory interface {
	ActorsHolding(ctx context.Context, role roledomain.Role, scope string) ([]string, error)
}

// route is one row of the static recipient-resolution table.
type route struct {
	roles     []roledomain.Role
	submitter bool // also notify the document's submitter, regardless of role
}

// routes is keyed by (document kind, resulting status), never by inspecting
// status names. For each resulting status it names the roles that must act
// next, plus the submitter on the transitions that route control back.
var routes = map[workflow.DocumentKind]map[workflow.Status]route{
	workflow.KindExpenditureRequest: {
		workflow.StatusSubmitted:     {roles: []roledomain.Role{roledomain.RoleVerifier}},
		workflow.StatusStage1Review:  {roles: []roledomain.Role{roledomain.RoleVerifier}},
		workflow.StatusStage2Review:  {roles: []roledomain.Role{roledomain.RoleBudgetAnalyst}},
		workflow.StatusStage3Review:  {roles: []roledomain.Role{roledomain.RoleTreasuryClerk}},
		workflow.StatusStage4Review:  {roles: []roledomain.Role{roledomain.RoleTreasurer}},
		workflow.StatusFinalReview:   {roles: []roledomain.Role{roledomain.RoleAuthorizer}},
		workflow.StatusApproved:      {roles: []roledomain.Role{roledomain.RoleTreasuryClerk}, submitter: true},
		workflow.StatusRejected:      {submitter: true},
		workflow.StatusNeedsRevision: {roles: []roledomain.Role{roledomain.RoleOperator}, submitter: true},
	},
	workflow.KindPaymentOrder: {
		workflow.StatusPending:    {roles: []roledomain.Role{roledomain.RoleTreasuryClerk}},
		workflow.StatusProcessing: {roles: []roledomain.Role{roledomain.RoleAuthorizer}},
		workflow.StatusIssued:     {roles: []roledomain.Role{roledomain.RoleTreasuryClerk}},
		workflow.StatusSettled:    {submitter: true},
		workflow.StatusFailed:     {roles: []roledomain.Role{roledomain.RoleTreasuryClerk}, submitter: true},
	},
}

// Router resolves recipients for a transition and dispatches through every
// configured channel.
type Router struct {
	directory RoleDirectory
	contacts  domain.ContactSource
	channels  []Channel
	repo      notifyrepo.Repository
	nowF      func() time.Time
}

// NewRouter returns a Router dispatching through the given channels. Channel
// order only affects record layout, not delivery.
func NewRouter(directory RoleDirectory, contacts domain.ContactSource, repo notifyrepo.Repository, channels ...Channel) *Router {
	return &Router{
		directory: directory,
		contacts:  contacts,
		channels:  channels,
		repo:      repo,
		nowF:      func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the clock. Test helper.
func (r *Router) WithNow(nowF func() time.Time) *Router {
	r.nowF = nowF
	return r
}

// Route resolves the recipient set for the resulting status and dispatches to
// each recipient over each channel independently: one recipient's or one
// channel's failure never blocks the others. One NotificationRecord is written
// per recipient regardless of channel outcomes. The returned records are
// sorted by recipient.
func (r *Router) Route(ctx context.Context, kind workflow.DocumentKind, action string, resulting workflow.Status, doc workflow.Document) ([]*domain.Record, error) {
	rt, ok := routes[kind][resulting]
	if !ok {
		return nil, nil
	}

	recipients, err := r.resolveRecipients(ctx, rt, doc)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	eventID := uuid.New().String()
	msg := buildMessage(kind, resulting, doc)

	var (
		mu      sync.Mutex
		records []*domain.Record
		wg      sync.WaitGroup
	)
	for _, recipientID := range recipients {
		wg.Add(1)
		go func(recipientID string) {
			defer wg.Done()
			rec := r.dispatchTo(ctx, recipientID, eventID, kind, action, resulting, doc, msg)
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
		}(recipientID)
	}
	wg.Wait()

	sort.Slice(records, func(i, j int) bool { return records[i].RecipientID < records[j].RecipientID })
	return records, nil
}

func (r *Router) resolveRecipients(ctx context.Context, rt route, doc workflow.Document) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, role := range rt.roles {
		actors, err := r.directory.ActorsHolding(ctx, role, doc.UnitID)
		if err != nil {
			return nil, fmt.Errorf("notify: resolve %s: %w", role, err)
		}
		for _, id := range actors {
			add(id)
		}
	}
	if rt.submitter {
		add(doc.SubmitterID)
	}
	sort.Strings(out)
	return out, nil
}

// dispatchTo attempts every channel for one recipient and writes the record.
// Channel errors are recorded, never returned.
func (r *Router) dispatchTo(ctx context.Context, recipientID, eventID string, kind workflow.DocumentKind, action string, resulting workflow.Status, doc workflow.Document, msg Message) *domain.Record {
	rec := &domain.Record{
		ID:           uuid.New().String(),
		EventID:      eventID,
		DocumentKind: string(kind),
		DocumentID:   doc.ID,
		Action:       action,
		Status:       string(resulting),
		RecipientID:  recipientID,
		Channels:     make(map[string]domain.DeliveryStatus, len(r.channels)),
		CreatedAt:    r.nowF(),
	}

	contact, contactErr := r.contacts.ContactFor(ctx, recipientID)
	for _, ch := range r.channels {
		if contactErr != nil {
			rec.Channels[ch.Name()] = domain.DeliveryFailed
			continue
		}
		address := addressFor(contact, ch.Name())
		if address == "" {
			rec.Channels[ch.Name()] = domain.DeliveryNotConfigured
			continue
		}
		if err := ch.Send(ctx, address, msg); err != nil {
			log.Printf("notify: %s to %s failed: %v", ch.Name(), recipientID, err)
			rec.Channels[ch.Name()] = domain.DeliveryFailed
			continue
		}
		rec.Channels[ch.Name()] = domain.DeliverySent
	}
	if contactErr != nil {
		log.Printf("notify: contact lookup for %s failed: %v", recipientID, contactErr)
	}

	if err := r.repo.Append(ctx, rec); err != nil {
		log.Printf("notify: record for %s not written: %v", recipientID, err)
	}
	return rec
}

func addressFor(contact domain.Contact, channelName string) string {
	switch channelName {
	case "sms":
		return contact.Phone
	case "mail":
		return contact.Email
	default:
		return ""
	}
}

func buildMessage(kind workflow.DocumentKind, resulting workflow.Status, doc workflow.Document) Message {
	docName := "Document"
	switch kind {
	case workflow.KindExpenditureRequest:
		docName = "Expenditure request"
	case workflow.KindPaymentOrder:
		docName = "Payment order"
	}
	return Message{
		Subject: fmt.Sprintf("%s %s: %s", docName, doc.ID, resulting),
		Body:    fmt.Sprintf("%s %s (unit %s) is now %s.", docName, doc.ID, doc.UnitID, resulting),
	}
}
