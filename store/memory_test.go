package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jaswdr/faker"
	"github.com/skillexchange/skill-exchange-backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedLearner(s *Memory, balance int64) *models.User {
	f := faker.New()
	u := &models.User{
		ID:           primitive.NewObjectID(),
		Name:         f.Person().Name(),
		Email:        f.Internet().Email(),
		Status:       models.StatusActive,
		Verified:     true,
		TokenBalance: balance,
	}
	s.PutUser(u)
	return u
}

func seedCourse(s *Memory) *models.Course {
	f := faker.New()
	c := &models.Course{
		ID:          primitive.NewObjectID(),
		MentorID:    primitive.NewObjectID(),
		Title:       f.Lorem().Sentence(3),
		Description: f.Lorem().Sentence(8),
		Image:       "uploads/images/a.png",
		Thumbnail:   "uploads/images/b.png",
		Video:       "uploads/videos/c.mp4",
	}
	s.PutCourse(c)
	return c
}

func TestEnrollTwiceConflicts(t *testing.T) {
	s := NewMemory()
	learner := seedLearner(s, 0)
	course := seedCourse(s)
	ctx := context.Background()

	got, err := s.Enroll(ctx, learner.ID, course.ID)
	if err != nil {
		t.Fatalf("first enroll failed: %v", err)
	}
	if got.EnrolledCount() != 1 {
		t.Fatalf("enrolled count = %d, want 1", got.EnrolledCount())
	}

	if _, err := s.Enroll(ctx, learner.ID, course.ID); err != ErrAlreadyEnrolled {
		t.Fatalf("second enroll err = %v, want ErrAlreadyEnrolled", err)
	}

	// Cross-document invariant: both sides agree after the conflict.
	c, _ := s.GetCourse(course.ID)
	u, _ := s.GetUser(learner.ID)
	if c.EnrolledCount() != 1 {
		t.Errorf("course side recorded %d enrollments, want 1", c.EnrolledCount())
	}
	if len(u.CoursesEnrolled) != 1 || u.CoursesEnrolled[0] != course.ID {
		t.Errorf("user side = %v, want exactly [%s]", u.CoursesEnrolled, course.ID.Hex())
	}
}

func TestEnrollMissingDocs(t *testing.T) {
	s := NewMemory()
	learner := seedLearner(s, 0)
	course := seedCourse(s)
	ctx := context.Background()

	if _, err := s.Enroll(ctx, learner.ID, primitive.NewObjectID()); err != ErrCourseNotFound {
		t.Errorf("unknown course err = %v, want ErrCourseNotFound", err)
	}
	if _, err := s.Enroll(ctx, primitive.NewObjectID(), course.ID); err != ErrUserNotFound {
		t.Errorf("unknown learner err = %v, want ErrUserNotFound", err)
	}
}

func TestConcurrentEnrollExactlyOneWinner(t *testing.T) {
	s := NewMemory()
	learner := seedLearner(s, 0)
	course := seedCourse(s)
	ctx := context.Background()

	const racers = 32
	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Enroll(ctx, learner.ID, course.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch err {
		case nil:
			wins++
		case ErrAlreadyEnrolled:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != racers-1 {
		t.Fatalf("wins = %d conflicts = %d, want 1 and %d", wins, conflicts, racers-1)
	}

	c, _ := s.GetCourse(course.ID)
	u, _ := s.GetUser(learner.ID)
	if c.EnrolledCount() != 1 || len(u.CoursesEnrolled) != 1 {
		t.Fatalf("state diverged: course=%d user=%d", c.EnrolledCount(), len(u.CoursesEnrolled))
	}
}

func TestProgressBounds(t *testing.T) {
	s := NewMemory()
	learner := seedLearner(s, 0)
	course := seedCourse(s)
	ctx := context.Background()
	if _, err := s.Enroll(ctx, learner.ID, course.ID); err != nil {
		t.Fatal(err)
	}

	for _, percent := range []int{-1, 101, 1000} {
		if _, err := s.UpdateProgress(ctx, learner.ID, course.ID, percent); err != ErrInvalidProgress {
			t.Errorf("UpdateProgress(%d) err = %v, want ErrInvalidProgress", percent, err)
		}
	}
	entry, err := s.UpdateProgress(ctx, learner.ID, course.ID, 55)
	if err != nil {
		t.Fatalf("UpdateProgress(55) failed: %v", err)
	}
	if entry.Percent != 55 || entry.Completed {
		t.Errorf("entry = %+v, want percent 55 uncompleted", entry)
	}
}

func TestProgressRequiresEnrollment(t *testing.T) {
	s := NewMemory()
	learner := seedLearner(s, 0)
	course := seedCourse(s)
	ctx := context.Background()

	if _, err := s.UpdateProgress(ctx, learner.ID, course.ID, 10); err != ErrNotEnrolled {
		t.Errorf("err = %v, want ErrNotEnrolled", err)
	}
	if _, err := s.Complete(ctx, learner.ID, course.ID); err != ErrNotEnrolled {
		t.Errorf("complete err = %v, want ErrNotEnrolled", err)
	}
}

func TestHundredPercentCompletes(t *testing.T) {
	s := NewMemory()
	learner := seedLearner(s, 0)
	course := seedCourse(s)
	ctx := context.Background()
	if _, err := s.Enroll(ctx, learner.ID, course.ID); err != nil {
		t.Fatal(err)
	}

	entry, err := s.UpdateProgress(ctx, learner.ID, course.ID, 100)
	if err != nil {
		t.Fatalf("UpdateProgress(100) failed: %v", err)
	}
	if !entry.Completed || entry.Percent != 100 || entry.CompletedAt == nil {
		t.Errorf("entry = %+v, want completed at 100", entry)
	}

	u, _ := s.GetUser(learner.ID)
	if u.CoursesCompleted != 1 {
		t.Errorf("courses_completed = %d, want 1", u.CoursesCompleted)
	}
}

func TestCompletionIsTerminal(t *testing.T) {
	s := NewMemory()
	learner := seedLearner(s, 0)
	course := seedCourse(s)
	ctx := context.Background()
	if _, err := s.Enroll(ctx, learner.ID, course.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Complete(ctx, learner.ID, course.ID); err != nil {
		t.Fatal(err)
	}

	// Further percent updates can never reset the flag.
	if _, err := s.UpdateProgress(ctx, learner.ID, course.ID, 10); err != ErrCourseCompleted {
		t.Errorf("post-completion update err = %v, want ErrCourseCompleted", err)
	}

	// Repeat completion is a no-op, not a second counter bump.
	if _, err := s.Complete(ctx, learner.ID, course.ID); err != nil {
		t.Fatalf("repeat complete failed: %v", err)
	}
	u, _ := s.GetUser(learner.ID)
	if u.CoursesCompleted != 1 {
		t.Errorf("courses_completed = %d after repeat complete, want 1", u.CoursesCompleted)
	}
	c, _ := s.GetCourse(course.ID)
	if entry := c.ProgressFor(learner.ID); entry == nil || !entry.Completed {
		t.Errorf("completed flag reset: %+v", entry)
	}
}

func TestEnrollmentScenario(t *testing.T) {
	s := NewMemory()
	learner := seedLearner(s, 0)
	course := seedCourse(s)
	ctx := context.Background()

	if _, err := s.Enroll(ctx, learner.ID, course.ID); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := s.Enroll(ctx, learner.ID, course.ID); err != ErrAlreadyEnrolled {
		t.Fatalf("re-enroll err = %v, want conflict", err)
	}
	entry, err := s.UpdateProgress(ctx, learner.ID, course.ID, 55)
	if err != nil || entry.Percent != 55 {
		t.Fatalf("progress 55: entry=%+v err=%v", entry, err)
	}
	completed, err := s.Complete(ctx, learner.ID, course.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := completed.ProgressFor(learner.ID); got == nil || got.Percent != 100 || !got.Completed {
		t.Fatalf("completion state = %+v", got)
	}
	courses, err := s.CompletedCourses(ctx, learner.ID)
	if err != nil || len(courses) != 1 || courses[0].ID != course.ID {
		t.Fatalf("completed list = %v err = %v, want exactly the course", courses, err)
	}
}

func TestTransferMovesBalanceAndLedger(t *testing.T) {
	s := NewMemory()
	sender := seedLearner(s, 100)
	recipient := seedLearner(s, 0)
	ctx := context.Background()

	transfer, err := s.Transfer(ctx, TransferRequest{
		IdempotencyKey: "key-1",
		SenderID:       sender.ID,
		RecipientID:    recipient.ID,
		Amount:         30,
		Description:    "mentorship session",
	})
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	senderWallet, _ := s.Wallet(ctx, sender.ID)
	recipientWallet, _ := s.Wallet(ctx, recipient.ID)
	if senderWallet.Balance != 70 || recipientWallet.Balance != 30 {
		t.Fatalf("balances = %d/%d, want 70/30", senderWallet.Balance, recipientWallet.Balance)
	}
	if len(senderWallet.Transactions) != 1 || len(recipientWallet.Transactions) != 1 {
		t.Fatalf("ledger rows = %d/%d, want 1/1", len(senderWallet.Transactions), len(recipientWallet.Transactions))
	}
	debit := senderWallet.Transactions[0]
	credit := recipientWallet.Transactions[0]
	if debit.Type != models.LedgerSpend || credit.Type != models.LedgerEarn {
		t.Errorf("ledger types = %s/%s, want spend/earn", debit.Type, credit.Type)
	}
	if debit.Amount != credit.Amount || debit.Amount != 30 {
		t.Errorf("ledger amounts = %d/%d, want 30/30", debit.Amount, credit.Amount)
	}
	if debit.TransferID != transfer.ID || credit.TransferID != transfer.ID {
		t.Errorf("ledger rows not linked to transfer %s", transfer.ID.Hex())
	}
}

func TestTransferRejections(t *testing.T) {
	s := NewMemory()
	sender := seedLearner(s, 10)
	recipient := seedLearner(s, 0)
	ctx := context.Background()

	cases := []struct {
		name string
		req  TransferRequest
		want error
	}{
		{"zero amount", TransferRequest{IdempotencyKey: "a", SenderID: sender.ID, RecipientID: recipient.ID, Amount: 0}, ErrInvalidAmount},
		{"negative amount", TransferRequest{IdempotencyKey: "b", SenderID: sender.ID, RecipientID: recipient.ID, Amount: -5}, ErrInvalidAmount},
		{"self transfer", TransferRequest{IdempotencyKey: "c", SenderID: sender.ID, RecipientID: sender.ID, Amount: 5}, ErrSelfTransfer},
		{"insufficient", TransferRequest{IdempotencyKey: "d", SenderID: sender.ID, RecipientID: recipient.ID, Amount: 11}, ErrInsufficientBalance},
		{"unknown sender", TransferRequest{IdempotencyKey: "e", SenderID: primitive.NewObjectID(), RecipientID: recipient.ID, Amount: 5}, ErrUserNotFound},
		{"unknown recipient", TransferRequest{IdempotencyKey: "f", SenderID: sender.ID, RecipientID: primitive.NewObjectID(), Amount: 5}, ErrUserNotFound},
	}
	for _, tc := range cases {
		if _, err := s.Transfer(ctx, tc.req); err != tc.want {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}

	// Nothing moved.
	w, _ := s.Wallet(ctx, sender.ID)
	if w.Balance != 10 || len(w.Transactions) != 0 {
		t.Errorf("sender wallet mutated by rejected transfers: %+v", w)
	}
}

func TestTransferIdempotencyKeyReplay(t *testing.T) {
	s := NewMemory()
	sender := seedLearner(s, 100)
	recipient := seedLearner(s, 0)
	ctx := context.Background()

	req := TransferRequest{IdempotencyKey: "retry-key", SenderID: sender.ID, RecipientID: recipient.ID, Amount: 40}
	first, err := s.Transfer(ctx, req)
	if err != nil {
		t.Fatalf("first transfer failed: %v", err)
	}
	if _, err := s.Transfer(ctx, req); err != ErrDuplicateTransfer {
		t.Fatalf("replay err = %v, want ErrDuplicateTransfer", err)
	}

	recorded, err := s.TransferByKey(ctx, "retry-key")
	if err != nil {
		t.Fatalf("TransferByKey failed: %v", err)
	}
	if recorded.ID != first.ID || recorded.Amount != 40 {
		t.Errorf("recorded = %+v, want the original transfer", recorded)
	}

	w, _ := s.Wallet(ctx, sender.ID)
	if w.Balance != 60 {
		t.Errorf("sender balance = %d after replay, want 60", w.Balance)
	}
}

func TestConcurrentTransfersConserveTotal(t *testing.T) {
	s := NewMemory()
	sender := seedLearner(s, 50)
	recipient := seedLearner(s, 0)
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Each attempt tries to move 10; only five can succeed.
			s.Transfer(ctx, TransferRequest{
				IdempotencyKey: fmt.Sprintf("race-%d", i),
				SenderID:       sender.ID,
				RecipientID:    recipient.ID,
				Amount:         10,
			})
		}(i)
	}
	wg.Wait()

	sw, _ := s.Wallet(ctx, sender.ID)
	rw, _ := s.Wallet(ctx, recipient.ID)
	if sw.Balance < 0 {
		t.Fatalf("sender balance went negative: %d", sw.Balance)
	}
	if sw.Balance+rw.Balance != 50 {
		t.Fatalf("total = %d, want 50", sw.Balance+rw.Balance)
	}
	if sw.Balance != 0 || rw.Balance != 50 {
		t.Errorf("balances = %d/%d, want 0/50", sw.Balance, rw.Balance)
	}
}
