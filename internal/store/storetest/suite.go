package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mat1312/psicologo/internal/model"
	"github.com/mat1312/psicologo/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store and return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	suffix := uuid.New().String()[:8]

	// Profiles
	patient, err := s.Profiles().Create(ctx, &model.Profile{
		Email: "patient-" + suffix + "@example.test",
		Role:  model.RolePatient,
	})
	if err != nil {
		t.Fatalf("CreateProfile patient: %v", err)
	}
	if patient.ID == "" {
		t.Fatalf("CreateProfile: empty id")
	}
	therapist, err := s.Profiles().Create(ctx, &model.Profile{
		Email: "therapist-" + suffix + "@example.test",
		Role:  model.RoleTherapist,
	})
	if err != nil {
		t.Fatalf("CreateProfile therapist: %v", err)
	}
	if got, err := s.Profiles().Get(ctx, patient.ID); err != nil || got.Role != model.RolePatient {
		t.Fatalf("GetProfile: got=%v err=%v", got, err)
	}
	if got, err := s.Profiles().GetByEmail(ctx, patient.Email); err != nil || got.ID != patient.ID {
		t.Fatalf("GetProfileByEmail: got=%v err=%v", got, err)
	}
	if _, err := s.Profiles().Get(ctx, uuid.New().String()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetProfile missing: want ErrNotFound, got %v", err)
	}
	if lst, err := s.Profiles().List(ctx); err != nil || len(lst) < 2 {
		t.Fatalf("ListProfiles: n=%d err=%v", len(lst), err)
	}
	if err := s.Profiles().UpdateRole(ctx, patient.ID, model.RolePatient); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}

	// Sessions
	sess, err := s.Sessions().Create(ctx, &model.ChatSession{PatientID: patient.ID})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if got, err := s.Sessions().Get(ctx, sess.ID); err != nil || got.PatientID != patient.ID {
		t.Fatalf("GetSession: got=%v err=%v", got, err)
	}
	if _, err := s.Sessions().Get(ctx, uuid.New().String()); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetSession missing: want ErrNotFound, got %v", err)
	}

	// Messages: seq assignment is strictly monotonic and bumps last_updated
	m1, err := s.Messages().Append(ctx, &model.Message{SessionID: sess.ID, Role: model.MessageRoleUser, Content: "hello"})
	if err != nil {
		t.Fatalf("AppendMessage m1: %v", err)
	}
	m2, err := s.Messages().Append(ctx, &model.Message{SessionID: sess.ID, Role: model.MessageRoleAssistant, Content: "hi there"})
	if err != nil {
		t.Fatalf("AppendMessage m2: %v", err)
	}
	if m1.Seq != 1 || m2.Seq != 2 {
		t.Fatalf("seq assignment: got %d, %d", m1.Seq, m2.Seq)
	}
	if after, err := s.Sessions().Get(ctx, sess.ID); err != nil || after.LastUpdated.Before(sess.LastUpdated) {
		t.Fatalf("last_updated not bumped: %v err=%v", after, err)
	}
	if _, err := s.Messages().Append(ctx, &model.Message{SessionID: uuid.New().String(), Role: model.MessageRoleUser, Content: "x"}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Append to missing session: want ErrNotFound, got %v", err)
	}

	all, err := s.Messages().List(ctx, model.ListMessagesRequest{SessionID: sess.ID})
	if err != nil || len(all) != 2 {
		t.Fatalf("ListMessages: n=%d err=%v", len(all), err)
	}
	if all[0].Seq != 1 || all[1].Seq != 2 {
		t.Fatalf("ListMessages order: %d, %d", all[0].Seq, all[1].Seq)
	}
	tail, err := s.Messages().List(ctx, model.ListMessagesRequest{SessionID: sess.ID, AfterSeq: 1})
	if err != nil || len(tail) != 1 || tail[0].ID != m2.ID {
		t.Fatalf("ListMessages afterSeq: n=%d err=%v", len(tail), err)
	}
	if empty, err := s.Messages().List(ctx, model.ListMessagesRequest{SessionID: sess.ID, AfterSeq: 2}); err != nil || len(empty) != 0 {
		t.Fatalf("ListMessages past tail: n=%d err=%v", len(empty), err)
	}

	// Session listing is newest-activity first
	sess2, err := s.Sessions().Create(ctx, &model.ChatSession{PatientID: patient.ID})
	if err != nil {
		t.Fatalf("CreateSession 2: %v", err)
	}
	if _, err := s.Messages().Append(ctx, &model.Message{SessionID: sess2.ID, Role: model.MessageRoleUser, Content: "newer"}); err != nil {
		t.Fatalf("AppendMessage sess2: %v", err)
	}
	sessList, err := s.Sessions().ListByPatient(ctx, patient.ID)
	if err != nil || len(sessList) != 2 {
		t.Fatalf("ListSessions: n=%d err=%v", len(sessList), err)
	}
	if sessList[0].ID != sess2.ID {
		t.Fatalf("ListSessions order: got %s first", sessList[0].ID)
	}

	// Concurrent appends to one session must not collide on seq: every
	// append succeeds and the assigned seqs are exactly 1..n.
	concSess, err := s.Sessions().Create(ctx, &model.ChatSession{PatientID: patient.ID})
	if err != nil {
		t.Fatalf("CreateSession concurrent: %v", err)
	}
	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Messages().Append(ctx, &model.Message{SessionID: concSess.ID, Role: model.MessageRoleUser, Content: "racer"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Append: %v", err)
		}
	}
	raced, err := s.Messages().List(ctx, model.ListMessagesRequest{SessionID: concSess.ID})
	if err != nil || len(raced) != writers {
		t.Fatalf("concurrent ListMessages: n=%d err=%v", len(raced), err)
	}
	for i, m := range raced {
		if m.Seq != int64(i+1) {
			t.Fatalf("concurrent seq gap: position %d has seq %d", i, m.Seq)
		}
	}

	// Moods
	if _, err := s.Moods().Create(ctx, &model.MoodLog{PatientID: patient.ID, Score: 4}); err != nil {
		t.Fatalf("CreateMood: %v", err)
	}
	if _, err := s.Moods().Create(ctx, &model.MoodLog{PatientID: patient.ID, Score: 2}); err != nil {
		t.Fatalf("CreateMood 2: %v", err)
	}
	if lst, err := s.Moods().ListByPatient(ctx, patient.ID, 1); err != nil || len(lst) != 1 {
		t.Fatalf("ListMoods limit: n=%d err=%v", len(lst), err)
	}

	// Notes upsert keeps one row per patient
	n1, err := s.Notes().Upsert(ctx, &model.PatientNote{PatientID: patient.ID, Content: "first draft"})
	if err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	n2, err := s.Notes().Upsert(ctx, &model.PatientNote{PatientID: patient.ID, TherapistID: &therapist.ID, Content: "revised"})
	if err != nil {
		t.Fatalf("UpsertNote 2: %v", err)
	}
	if n1.ID != n2.ID {
		t.Fatalf("note upsert created a second row: %s vs %s", n1.ID, n2.ID)
	}
	if got, err := s.Notes().GetByPatient(ctx, patient.ID); err != nil || got.Content != "revised" {
		t.Fatalf("GetNote: got=%v err=%v", got, err)
	}
	if _, err := s.Notes().GetByPatient(ctx, therapist.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetNote missing: want ErrNotFound, got %v", err)
	}

	// Links are idempotent on the pair
	l1, already, err := s.Links().Create(ctx, &model.TherapistPatientLink{TherapistID: therapist.ID, PatientID: patient.ID})
	if err != nil || already {
		t.Fatalf("CreateLink: already=%v err=%v", already, err)
	}
	l2, already, err := s.Links().Create(ctx, &model.TherapistPatientLink{TherapistID: therapist.ID, PatientID: patient.ID})
	if err != nil || !already || l2.ID != l1.ID {
		t.Fatalf("CreateLink repeat: already=%v id=%s err=%v", already, l2.ID, err)
	}
	if lst, err := s.Links().ListByTherapist(ctx, therapist.ID); err != nil || len(lst) != 1 {
		t.Fatalf("ListLinksByTherapist: n=%d err=%v", len(lst), err)
	}
	if lst, err := s.Links().List(ctx); err != nil || len(lst) < 1 {
		t.Fatalf("ListLinks: n=%d err=%v", len(lst), err)
	}

	// MoodData daily aggregates upsert on (patient, date)
	day := m1.CreatedAt.Truncate(24 * time.Hour)
	if err := s.MoodData().Put(ctx, &model.MoodDatum{PatientID: patient.ID, Date: day, Value: 3.0}); err != nil {
		t.Fatalf("PutMoodDatum: %v", err)
	}
	if err := s.MoodData().Put(ctx, &model.MoodDatum{PatientID: patient.ID, Date: day, Value: 3.5}); err != nil {
		t.Fatalf("PutMoodDatum upsert: %v", err)
	}
	data, err := s.MoodData().ListByPatient(ctx, patient.ID)
	if err != nil || len(data) != 1 || data[0].Value != 3.5 {
		t.Fatalf("ListMoodData: n=%d err=%v", len(data), err)
	}
}
