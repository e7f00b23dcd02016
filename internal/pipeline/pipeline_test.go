package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpdesk-triage-go/internal/config"
	"helpdesk-triage-go/internal/metrics"
	"helpdesk-triage-go/internal/models"
	"helpdesk-triage-go/internal/store"
	"helpdesk-triage-go/internal/triage"
)

// promauto registers into the default registry; one shared instance keeps
// repeated test construction from panicking on duplicate registration.
var testMetrics = metrics.NewMetrics()

type fakeGateway struct {
	emails   []models.EmailMessage
	listErr  error
	read     map[string]bool
	archived map[string]bool
}

func newFakeGateway(emails ...models.EmailMessage) *fakeGateway {
	return &fakeGateway{
		emails:   emails,
		read:     make(map[string]bool),
		archived: make(map[string]bool),
	}
}

func (g *fakeGateway) FetchUnread(ctx context.Context) ([]models.EmailMessage, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.emails, nil
}

func (g *fakeGateway) MarkRead(ctx context.Context, id string) error {
	g.read[id] = true
	return nil
}

func (g *fakeGateway) Archive(ctx context.Context, id string) error {
	g.archived[id] = true
	return nil
}

func (g *fakeGateway) Close() error { return nil }

type fakeStore struct {
	processed map[string]*models.ProcessedEmail
	tickets   map[string]*models.Ticket // keyed by thread id
	notes     []*models.Note
	junk      []*models.JunkMail

	nextTicketID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		processed: make(map[string]*models.ProcessedEmail),
		tickets:   make(map[string]*models.Ticket),
	}
}

func (s *fakeStore) IsProcessed(messageID string) (bool, error) {
	_, ok := s.processed[messageID]
	return ok, nil
}

func (s *fakeStore) MarkProcessed(record *models.ProcessedEmail) error {
	if _, ok := s.processed[record.MessageID]; ok {
		return store.ErrAlreadyProcessed
	}
	s.processed[record.MessageID] = record
	return nil
}

func (s *fakeStore) FindTicketByThread(threadID string) (*models.Ticket, error) {
	ticket, ok := s.tickets[threadID]
	if !ok {
		return nil, nil
	}
	return ticket, nil
}

func (s *fakeStore) CreateTicket(ticket *models.Ticket) error {
	if _, ok := s.tickets[ticket.ThreadID]; ok {
		return fmt.Errorf("duplicate thread %s", ticket.ThreadID)
	}
	s.nextTicketID++
	ticket.ID = fmt.Sprintf("ticket-%08d", s.nextTicketID)
	s.tickets[ticket.ThreadID] = ticket
	return nil
}

func (s *fakeStore) AppendNote(note *models.Note) error {
	s.notes = append(s.notes, note)
	return nil
}

func (s *fakeStore) ArchiveJunk(junk *models.JunkMail) error {
	s.junk = append(s.junk, junk)
	return nil
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, to, cc, subject, html string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, to)
	return nil
}

type countingClassifier struct {
	inner triage.Classifier
	calls int
}

func (c *countingClassifier) Classify(ctx context.Context, from, subject, body string) triage.Result {
	c.calls++
	return c.inner.Classify(ctx, from, subject, body)
}

func testTriageConfig() *config.TriageConfig {
	return &config.TriageConfig{
		BlockedSenders: []string{"noreply@", "no-reply@"},
		OrgDomain:      "example.org",
		SupportCC:      "itsupport@example.org",
		AppURL:         "https://helpdesk.example.org",
		MaxBodyChars:   1000,
	}
}

func newTestPipeline(g *fakeGateway, s *fakeStore, n *fakeNotifier) *Pipeline {
	return New(g, triage.NewKeywordClassifier(), s, n, testMetrics, testTriageConfig())
}

func TestPipelineScenario(t *testing.T) {
	existing := &models.Ticket{
		ID:          "ticket-existing",
		ThreadID:    "thread-3",
		SenderEmail: "alice@example.com",
		Status:      models.StatusOpen,
	}

	gateway := newFakeGateway(
		models.EmailMessage{ID: "m1", ThreadID: "thread-1", From: "noreply@vendor.com", Subject: "Invoice ready"},
		models.EmailMessage{ID: "m2", ThreadID: "thread-2", From: "bob@example.com", FromName: "Bob", Subject: "VPN not working urgently", Body: "I cannot reach anything"},
		models.EmailMessage{ID: "m3", ThreadID: "thread-3", From: "alice@example.com", FromName: "Alice", Subject: "Re: my ticket", Body: "still broken"},
	)
	st := newFakeStore()
	st.tickets["thread-3"] = existing
	notifier := &fakeNotifier{}

	summary, err := newTestPipeline(gateway, st, notifier).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.TicketsCreated)
	assert.Equal(t, 1, summary.RepliesAdded)
	assert.Equal(t, 1, summary.JunkFiltered)
	assert.Equal(t, 0, summary.DuplicatesSkipped)
	assert.Equal(t, 0, summary.Errors)

	// Blocked sender archived with a ledger row, no junk-archive copy
	assert.True(t, gateway.read["m1"])
	assert.True(t, gateway.archived["m1"])
	assert.Equal(t, triage.ClassificationJunk, st.processed["m1"].Classification)
	assert.Empty(t, st.junk)

	// Fallback classification shaped the new ticket
	created := st.tickets["thread-2"]
	require.NotNil(t, created)
	assert.Equal(t, models.StatusOpen, created.Status)
	assert.Equal(t, triage.PriorityUrgent, created.Priority)
	assert.Equal(t, triage.CategoryNetwork, created.Category)
	assert.Equal(t, []string{"bob@example.com"}, notifier.sent)

	// Reply became a note on the existing ticket, not a second ticket
	require.Len(t, st.notes, 1)
	assert.Equal(t, "ticket-existing", st.notes[0].TicketID)
	assert.Contains(t, st.notes[0].Content, "**Customer Follow-up** (Alice)")
	assert.Nil(t, st.notes[0].AuthorID)
	assert.Equal(t, "ticket-existing", *st.processed["m3"].TicketID)
}

func TestPipelineIdempotency(t *testing.T) {
	msg := models.EmailMessage{ID: "m1", ThreadID: "thread-1", From: "bob@example.com", Subject: "Printer broken", Body: "error light"}
	gateway := newFakeGateway(msg)
	st := newFakeStore()
	notifier := &fakeNotifier{}
	p := newTestPipeline(gateway, st, notifier)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.TicketsCreated)

	second, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.TicketsCreated)
	assert.Equal(t, 1, second.DuplicatesSkipped)
	assert.Equal(t, 0, second.Errors)

	assert.Len(t, st.tickets, 1)
	assert.Empty(t, st.notes)
	assert.Len(t, st.processed, 1)
	assert.Len(t, notifier.sent, 1)
}

func TestPipelineReplyLeavesStatusUnchanged(t *testing.T) {
	resolved := &models.Ticket{
		ID:          "ticket-1",
		ThreadID:    "thread-1",
		SenderEmail: "alice@example.com",
		Status:      models.StatusResolved,
	}
	gateway := newFakeGateway(
		models.EmailMessage{ID: "m1", ThreadID: "thread-1", From: "alice@example.com", Subject: "Re: fixed?", Body: "it broke again"},
	)
	st := newFakeStore()
	st.tickets["thread-1"] = resolved

	summary, err := newTestPipeline(gateway, st, &fakeNotifier{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.RepliesAdded)
	assert.Equal(t, models.StatusResolved, resolved.Status)
	assert.Len(t, st.tickets, 1)
	require.Len(t, st.notes, 1)
}

func TestPipelineReplyVoiceLabels(t *testing.T) {
	ticket := &models.Ticket{ID: "ticket-1", ThreadID: "thread-1", SenderEmail: "alice@example.com", Status: models.StatusOpen}

	tests := []struct {
		name  string
		from  string
		label string
	}{
		{"technician", "tech@example.org", "**Technician Reply**"},
		{"customer", "ALICE@example.com", "**Customer Follow-up**"},
		{"third party", "carol@elsewhere.com", "**Reply from**"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := newFakeGateway(
				models.EmailMessage{ID: fmt.Sprintf("m%d", i), ThreadID: "thread-1", From: tt.from, Subject: "Re:", Body: "reply"},
			)
			st := newFakeStore()
			st.tickets["thread-1"] = ticket

			_, err := newTestPipeline(gateway, st, &fakeNotifier{}).Run(context.Background())
			require.NoError(t, err)
			require.Len(t, st.notes, 1)
			assert.Contains(t, st.notes[0].Content, tt.label)
		})
	}
}

func TestPipelineFailureIsolation(t *testing.T) {
	gateway := newFakeGateway(
		models.EmailMessage{ID: "m1", ThreadID: "thread-1", From: "a@example.com", Subject: "help with monitor"},
		models.EmailMessage{ID: "m2", ThreadID: "thread-2", From: "b@example.com", Subject: "help with keyboard"},
		models.EmailMessage{ID: "m3", ThreadID: "thread-3", From: "c@example.com", Subject: "help with mouse"},
	)
	st := newFakeStore()
	notifier := &fakeNotifier{}
	p := newTestPipeline(gateway, st, notifier)

	// Fail persistence for the second message only
	p.store = &failOnThread{inner: st, thread: "thread-2"}

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.TicketsCreated)
	assert.Equal(t, 1, summary.Errors)
	require.Len(t, summary.ErrorDetails, 1)
	assert.Equal(t, "m2", summary.ErrorDetails[0].MessageID)

	// The failed message has no ledger row, so the next run retries it
	processed, _ := st.IsProcessed("m2")
	assert.False(t, processed)
}

// failOnThread wraps a Store and fails ticket creation for one thread
type failOnThread struct {
	inner  Store
	thread string
}

func (f *failOnThread) IsProcessed(id string) (bool, error) { return f.inner.IsProcessed(id) }
func (f *failOnThread) MarkProcessed(r *models.ProcessedEmail) error {
	return f.inner.MarkProcessed(r)
}
func (f *failOnThread) FindTicketByThread(id string) (*models.Ticket, error) {
	return f.inner.FindTicketByThread(id)
}
func (f *failOnThread) CreateTicket(ticket *models.Ticket) error {
	if ticket.ThreadID == f.thread {
		return fmt.Errorf("simulated insert failure")
	}
	return f.inner.CreateTicket(ticket)
}
func (f *failOnThread) AppendNote(n *models.Note) error    { return f.inner.AppendNote(n) }
func (f *failOnThread) ArchiveJunk(j *models.JunkMail) error { return f.inner.ArchiveJunk(j) }

func TestPipelineNotifierFailureSwallowed(t *testing.T) {
	gateway := newFakeGateway(
		models.EmailMessage{ID: "m1", ThreadID: "thread-1", From: "bob@example.com", Subject: "laptop request"},
	)
	st := newFakeStore()
	notifier := &fakeNotifier{err: fmt.Errorf("smtp unavailable")}

	summary, err := newTestPipeline(gateway, st, notifier).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TicketsCreated)
	assert.Equal(t, 0, summary.Errors)
	assert.Len(t, st.tickets, 1)
	processed, _ := st.IsProcessed("m1")
	assert.True(t, processed)
}

func TestPipelineAutoReplySuppression(t *testing.T) {
	gateway := newFakeGateway(
		models.EmailMessage{
			ID: "m1", ThreadID: "thread-1", From: "helpdesk@example.org",
			Subject: "[Request Received] #123",
			Headers: map[string]string{"x-auto-reply": "true"},
		},
		models.EmailMessage{
			ID: "m2", ThreadID: "thread-2", From: "helpdesk@example.org",
			Subject: "[Request Received] #456",
			Headers: map[string]string{"x-helpdesk-bot": "v1"},
		},
	)
	st := newFakeStore()
	classifier := &countingClassifier{inner: triage.NewKeywordClassifier()}
	p := New(gateway, classifier, st, &fakeNotifier{}, testMetrics, testTriageConfig())

	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.JunkFiltered)
	assert.Equal(t, 0, classifier.calls)
	assert.True(t, gateway.archived["m1"])
	assert.True(t, gateway.archived["m2"])
	assert.Empty(t, st.tickets)
}

func TestPipelineJunkClassificationArchived(t *testing.T) {
	gateway := newFakeGateway(
		models.EmailMessage{ID: "m1", ThreadID: "thread-1", From: "promo@shop.com", Subject: "Big sale", Body: "Click here to unsubscribe"},
	)
	st := newFakeStore()

	summary, err := newTestPipeline(gateway, st, &fakeNotifier{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.JunkFiltered)
	require.Len(t, st.junk, 1)
	assert.Equal(t, "promo@shop.com", st.junk[0].SenderEmail)
	assert.True(t, gateway.archived["m1"])
	assert.Empty(t, st.tickets)
}

func TestPipelineListingFailureIsFatal(t *testing.T) {
	gateway := newFakeGateway()
	gateway.listErr = fmt.Errorf("auth failure")

	_, err := newTestPipeline(gateway, newFakeStore(), &fakeNotifier{}).Run(context.Background())
	assert.Error(t, err)
}
