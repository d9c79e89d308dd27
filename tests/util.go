package testutil

import (
	"net/mail"
	"testing"
	"time"

	"github.com/nexus-reussite/backend/core"
	"github.com/nexus-reussite/backend/core/content"
	"github.com/nexus-reussite/backend/core/user"
)

// NewConfig returns a Config suitable for tests; nothing external is reached.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:          "Nexus Réussite",
		Env:              "TEST",
		Debug:            false,
		TestMode:         true,
		SecretKey:        "poq5-wer)8rp2cwe7^&*h8f28=k#+-o9##wyj^$o14=+n(y(q&",
		FrontendBaseURL:  "http://localhost:8080",
		DefaultFromEmail: mail.Address{Name: "Nexus Réussite", Address: "noreply@nexus-reussite.tn"},

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Host:                      "localhost",
			Port:                      "8000",
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateBrick persists a brick with sane defaults; override via the mutators.
func CreateBrick(
	t *testing.T,
	repo content.Repository,
	title string,
	typ content.BrickType,
	mutators ...func(*content.Brick),
) content.Brick {
	now := time.Now().UTC()
	brick := content.Brick{
		Title:           title,
		Content:         "Contenu de " + title,
		Type:            typ,
		Subject:         content.SubjectMathematics,
		Chapter:         "Dérivation",
		Difficulty:      3,
		TargetProfiles:  []content.Profile{content.ProfileAverage},
		LearningSteps:   []content.LearningStep{content.StepTraining},
		DurationMinutes: 10,
		AuthorID:        "author-1",
		AuthorName:      "Prof Test",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, mut := range mutators {
		mut(&brick)
	}
	brick, err := repo.CreateBrick(brick)
	if err != nil {
		t.Fatalf("CreateBrick() failed: %v", err)
	}
	return brick
}
