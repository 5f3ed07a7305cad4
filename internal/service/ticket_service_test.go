package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/events"
	"github.com/spec-kit/helpdesk-api/internal/repository/repositorytest"
)

type ticketFixture struct {
	svc      *TicketService
	users    *repositorytest.Users
	tickets  *repositorytest.Tickets
	comments *repositorytest.Comments
	timeline *repositorytest.Timeline

	user  *domain.User
	agent *domain.User
	admin *domain.User
}

func newTicketFixture(t *testing.T, dispatcher events.Dispatcher) *ticketFixture {
	t.Helper()

	users := repositorytest.NewUsers()
	comments := repositorytest.NewComments()
	tickets := repositorytest.NewTickets(comments)
	timeline := repositorytest.NewTimeline()

	svc := NewTicketService(TicketDependencies{
		TicketRepo:   tickets,
		UserRepo:     users,
		CommentRepo:  comments,
		TimelineRepo: timeline,
		Dispatcher:   dispatcher,
	})

	f := &ticketFixture{svc: svc, users: users, tickets: tickets, comments: comments, timeline: timeline}
	f.user = f.addUser(t, "user@example.com", domain.RoleUser)
	f.agent = f.addUser(t, "agent@example.com", domain.RoleAgent)
	f.admin = f.addUser(t, "admin@example.com", domain.RoleAdmin)
	return f
}

func (f *ticketFixture) addUser(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *ticketFixture) createTicket(t *testing.T, author *domain.User, title string, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.Create(context.Background(), author, TicketCreateInput{
		Title:       title,
		Description: "description of " + title,
		Priority:    priority,
	})
	require.NoError(t, err)
	return ticket
}

func (f *ticketFixture) timelineFor(t *testing.T, ticketID int64) []domain.TimelineEntry {
	t.Helper()
	entries, err := f.timeline.ListByTicket(context.Background(), ticketID)
	require.NoError(t, err)
	return entries
}

func TestCreateTicketDefaults(t *testing.T) {
	f := newTicketFixture(t, nil)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	ticket := f.createTicket(t, f.user, "Printer on fire", domain.TicketPriorityHigh)

	require.Equal(t, domain.TicketStatusOpen, ticket.Status)
	require.Equal(t, int64(1), ticket.Version)
	require.Equal(t, f.user.ID, ticket.AuthorID)
	require.Nil(t, ticket.AssignedTo)
	require.Equal(t, now.Add(24*time.Hour), ticket.SLADeadline)
	require.False(t, ticket.SLABreached(now))

	entries := f.timelineFor(t, ticket.ID)
	require.Len(t, entries, 1)
	require.Equal(t, domain.ActionCreateTicket, entries[0].Action)
	require.Equal(t, "Printer on fire", entries[0].Meta["title"])
	require.Equal(t, "High", entries[0].Meta["priority"])
}

func TestCreateTicketPublishesEvent(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var published []events.Event
	dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})

	f := newTicketFixture(t, dispatcher)
	ticket := f.createTicket(t, f.user, "VPN broken", domain.TicketPriorityLow)

	require.Len(t, published, 1)
	require.Equal(t, ticket.ID, published[0].TicketID)
	require.NotEmpty(t, published[0].ID)
	require.Equal(t, f.user.ID, *published[0].ActorID)
}

func TestListVisibilityByRole(t *testing.T) {
	f := newTicketFixture(t, nil)

	mine := f.createTicket(t, f.user, "Mine", domain.TicketPriorityLow)
	other := f.addUser(t, "other@example.com", domain.RoleUser)
	theirs := f.createTicket(t, other, "Theirs", domain.TicketPriorityLow)

	assigned, err := f.tickets.UpdateVersioned(context.Background(), theirs.ID, theirs.Version, theirs.Status, &f.agent.ID)
	require.NoError(t, err)

	rows, _, err := f.svc.List(context.Background(), f.user, TicketListQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, mine.ID, rows[0].ID)

	rows, _, err = f.svc.List(context.Background(), f.agent, TicketListQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, assigned.ID, rows[0].ID)

	rows, _, err = f.svc.List(context.Background(), f.admin, TicketListQuery{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestListPagination(t *testing.T) {
	f := newTicketFixture(t, nil)
	for i := 0; i < 25; i++ {
		f.createTicket(t, f.user, fmt.Sprintf("Ticket %02d", i), domain.TicketPriorityMedium)
	}

	rows, nextOffset, err := f.svc.List(context.Background(), f.user, TicketListQuery{})
	require.NoError(t, err)
	require.Len(t, rows, ListLimitDefault)
	require.NotNil(t, nextOffset)
	require.Equal(t, 20, *nextOffset)

	rows, nextOffset, err = f.svc.List(context.Background(), f.user, TicketListQuery{Offset: 20})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	require.Nil(t, nextOffset)
}

func TestListClampsLimit(t *testing.T) {
	f := newTicketFixture(t, nil)
	f.createTicket(t, f.user, "Only one", domain.TicketPriorityLow)

	rows, nextOffset, err := f.svc.List(context.Background(), f.user, TicketListQuery{Limit: 500})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Nil(t, nextOffset)
}

func TestListSearchMatchesLatestComment(t *testing.T) {
	f := newTicketFixture(t, nil)
	ticket := f.createTicket(t, f.user, "Email outage", domain.TicketPriorityHigh)
	f.createTicket(t, f.user, "Keyboard broken", domain.TicketPriorityLow)

	require.NoError(t, f.comments.Create(context.Background(), &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: f.user.ID,
		Message:  "Restarting the mailserver did not help",
	}))

	rows, _, err := f.svc.List(context.Background(), f.user, TicketListQuery{Search: "mailserver"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, ticket.ID, rows[0].ID)
}

func TestGetInvisibleTicketIsNotFound(t *testing.T) {
	f := newTicketFixture(t, nil)
	other := f.addUser(t, "other@example.com", domain.RoleUser)
	ticket := f.createTicket(t, other, "Secret", domain.TicketPriorityLow)

	_, _, _, err := f.svc.Get(context.Background(), f.user, ticket.ID)
	requireCode(t, err, "NOT_FOUND")

	_, _, _, err = f.svc.Get(context.Background(), f.user, 9999)
	requireCode(t, err, "NOT_FOUND")
}

func TestGetReturnsCommentsAndTimeline(t *testing.T) {
	f := newTicketFixture(t, nil)
	ticket := f.createTicket(t, f.user, "With comments", domain.TicketPriorityMedium)

	require.NoError(t, f.comments.Create(context.Background(), &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: f.user.ID,
		Message:  "Any update?",
	}))

	got, comments, timeline, err := f.svc.Get(context.Background(), f.user, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, ticket.ID, got.ID)
	require.Len(t, comments, 1)
	require.Len(t, timeline, 1)
}

func TestUpdateRequiresVersion(t *testing.T) {
	f := newTicketFixture(t, nil)
	ticket := f.createTicket(t, f.user, "Needs version", domain.TicketPriorityLow)

	closed := "closed"
	_, err := f.svc.Update(context.Background(), f.user, ticket.ID, 0, TicketUpdateInput{Status: &closed})
	requireCode(t, err, "FIELD_REQUIRED")
}

func TestUpdateStaleVersionConflict(t *testing.T) {
	f := newTicketFixture(t, nil)
	ticket := f.createTicket(t, f.user, "Contended", domain.TicketPriorityLow)

	closed := "closed"
	_, err := f.svc.Update(context.Background(), f.user, ticket.ID, ticket.Version+1, TicketUpdateInput{Status: &closed})
	requireCode(t, err, "VERSION_CONFLICT")

	// the conflict must leave the ticket untouched
	unchanged, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusOpen, unchanged.Status)
	require.Equal(t, int64(1), unchanged.Version)
	require.Len(t, f.timelineFor(t, ticket.ID), 1)
}

func TestUpdateBumpsVersionPerChange(t *testing.T) {
	f := newTicketFixture(t, nil)
	ticket := f.createTicket(t, f.user, "Twice updated", domain.TicketPriorityLow)

	inProgress := "in_progress"
	updated, err := f.svc.Update(context.Background(), f.admin, ticket.ID, 1, TicketUpdateInput{Status: &inProgress})
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.Version)
	require.Equal(t, "in_progress", updated.Status)

	closed := "closed"
	updated, err = f.svc.Update(context.Background(), f.admin, ticket.ID, 2, TicketUpdateInput{Status: &closed})
	require.NoError(t, err)
	require.Equal(t, int64(3), updated.Version)

	entries := f.timelineFor(t, ticket.ID)
	require.Len(t, entries, 3)
	require.Equal(t, domain.ActionUpdateStatus, entries[1].Action)
	require.Equal(t, "open", entries[1].Meta["from"])
	require.Equal(t, "in_progress", entries[1].Meta["to"])
	require.Equal(t, "in_progress", entries[2].Meta["from"])
	require.Equal(t, "closed", entries[2].Meta["to"])
}

func TestUpdateUserStatusRestrictions(t *testing.T) {
	f := newTicketFixture(t, nil)
	ticket := f.createTicket(t, f.user, "User limits", domain.TicketPriorityLow)

	inProgress := "in_progress"
	_, err := f.svc.Update(context.Background(), f.user, ticket.ID, 1, TicketUpdateInput{Status: &inProgress})
	requireCode(t, err, "FORBIDDEN")

	closed := "closed"
	updated, err := f.svc.Update(context.Background(), f.user, ticket.ID, 1, TicketUpdateInput{Status: &closed})
	require.NoError(t, err)
	require.Equal(t, "closed", updated.Status)
}

func TestUpdateAssignRequiresAdmin(t *testing.T) {
	f := newTicketFixture(t, nil)
	ticket := f.createTicket(t, f.user, "Assignment", domain.TicketPriorityLow)

	_, err := f.svc.Update(context.Background(), f.user, ticket.ID, 1, TicketUpdateInput{AssignedTo: &f.agent.ID})
	requireCode(t, err, "FORBIDDEN")

	updated, err := f.svc.Update(context.Background(), f.admin, ticket.ID, 1, TicketUpdateInput{AssignedTo: &f.agent.ID})
	require.NoError(t, err)
	require.Equal(t, f.agent.ID, *updated.AssignedTo)

	entries := f.timelineFor(t, ticket.ID)
	require.Len(t, entries, 2)
	require.Equal(t, domain.ActionAssignAgent, entries[1].Action)
}

func TestAgentUpdatesUnassignedTicket(t *testing.T) {
	f := newTicketFixture(t, nil)
	ticket := f.createTicket(t, f.user, "Unassigned", domain.TicketPriorityLow)

	// the agent cannot read the ticket back
	_, _, _, err := f.svc.Get(context.Background(), f.agent, ticket.ID)
	requireCode(t, err, "NOT_FOUND")

	// but can still close it
	closed := "closed"
	updated, err := f.svc.Update(context.Background(), f.agent, ticket.ID, 1, TicketUpdateInput{Status: &closed})
	require.NoError(t, err)
	require.Equal(t, "closed", updated.Status)
	require.Equal(t, int64(2), updated.Version)
}

func TestUpdateRejectsUnknownAssignee(t *testing.T) {
	f := newTicketFixture(t, nil)
	ticket := f.createTicket(t, f.user, "Bad assignee", domain.TicketPriorityLow)

	ghost := int64(9999)
	_, err := f.svc.Update(context.Background(), f.admin, ticket.ID, 1, TicketUpdateInput{AssignedTo: &ghost})
	requireCode(t, err, "INVALID_FIELD")
}

func TestUpdateStatusAndAssigneeTogether(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var types []events.EventType
	for _, et := range []events.EventType{events.EventTicketStatusChanged, events.EventTicketAssigned} {
		et := et
		dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			types = append(types, e.Type)
			return nil
		})
	}

	f := newTicketFixture(t, dispatcher)
	ticket := f.createTicket(t, f.user, "Both fields", domain.TicketPriorityMedium)

	inProgress := "in_progress"
	updated, err := f.svc.Update(context.Background(), f.admin, ticket.ID, 1, TicketUpdateInput{
		Status:     &inProgress,
		AssignedTo: &f.agent.ID,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.Version)
	require.Equal(t, "in_progress", updated.Status)
	require.Equal(t, f.agent.ID, *updated.AssignedTo)

	require.Len(t, f.timelineFor(t, ticket.ID), 3)
	require.Equal(t, []events.EventType{events.EventTicketStatusChanged, events.EventTicketAssigned}, types)
}
