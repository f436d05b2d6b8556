package main

import (
	"context"
	"log"
	"time"

	"relationship-notes-service/internal/dictation"
	"relationship-notes-service/internal/interaction"
	"relationship-notes-service/internal/models"
	"relationship-notes-service/internal/speech/sim"
	"relationship-notes-service/internal/store"
	"relationship-notes-service/internal/transcript"
)

// Drives the capture pipeline end to end against a local SQLite file:
// simulated dictation into the transcript buffer, then a submission
// through the record builder.
func main() {
	st, err := store.Open("captureclient.db")
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	contact, err := st.CreateContact(ctx, models.Contact{
		FirstName: "Demo",
		LastName:  "Contact",
		Company:   "Acme",
	})
	if err != nil {
		log.Fatalf("failed to create contact: %v", err)
	}
	log.Printf("Created contact: id=%s", contact.ID)

	buffer := transcript.New()
	recognizer := sim.New(sim.DefaultUtterances, 150*time.Millisecond)
	session := dictation.NewSession(recognizer, buffer)
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		log.Fatalf("failed to start dictation: %v", err)
	}
	log.Println("Dictation started")

	// Let the simulated utterances stream in.
	for i := 0; i < 10; i++ {
		time.Sleep(300 * time.Millisecond)
		log.Printf("Preview: %q", buffer.Preview())
	}

	if err := session.Stop(); err != nil {
		log.Fatalf("failed to stop dictation: %v", err)
	}
	for session.IsListening() {
		time.Sleep(50 * time.Millisecond)
	}
	log.Println("Dictation stopped")

	builder := interaction.NewBuilder(st, buffer)
	builder.SetObserver(func(saved models.Interaction) {
		log.Printf("Saved interaction: id=%s notes=%q", saved.ID, saved.Notes)
	})

	followUp := time.Now().AddDate(0, 0, 7).Format(models.DateLayout)
	saved, err := builder.Submit(ctx, contact.ID, interaction.FormState{
		Date:             time.Now().Format(models.DateLayout),
		Type:             string(models.TypeCall),
		ReminderSet:      true,
		NextFollowUpDate: followUp,
	})
	if err != nil {
		log.Fatalf("failed to submit interaction: %v", err)
	}

	history, err := st.ListInteractions(ctx, contact.ID)
	if err != nil {
		log.Fatalf("failed to list interactions: %v", err)
	}
	log.Printf("Contact has %d interaction(s); latest id=%s", len(history), saved.ID)
}
