package app

import (
	"context"
	"fmt"

	"quest/cmd/identity"
)

// Demo learner available in development builds.
const (
	demoEmail    = "alex@example.com"
	demoPassword = "learnpython"
	demoName     = "Alex Doe"
)

// seedDemo creates the demo learner unless it already exists.
func seedDemo(ctx context.Context, accounts identity.Store, log Logger) error {
	acct, err := accounts.Create(ctx, identity.CreateAccountInput{
		Email:    demoEmail,
		Name:     demoName,
		Password: demoPassword,
		Progression: &identity.Progression{
			Level:     5,
			XP:        450,
			Streak:    15,
			Gems:      1250,
			AvatarURL: "https://picsum.photos/id/237/100/100",
		},
	})
	if err != nil {
		if identity.IsAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("seed demo account: %w", err)
	}

	log.Info("seed.demo.created", "user_id", acct.ID)
	return nil
}
