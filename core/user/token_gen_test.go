package user

import (
	"testing"
	"time"

	"github.com/nexus-reussite/backend/core"
)

func testConfig() *core.Config {
	return &core.Config{
		SecretKey:                 "s3cr3t-t3st-k3y",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
}

func Test_MakeToken(t *testing.T) {
	conf := testConfig()
	usr := User{ID: "d791b261-d33c-42d4-88ff-d5ffe156e05e", Username: "awe", Email: "awe@test.tn"}
	_ = usr.SetPassword("t3stPa$$!")

	token, err := MakeToken(usr, conf)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}
	if token == "" {
		t.Fatal("MakeToken() returned an empty token")
	}

	if err = verifyToken(usr, token, conf); err != nil {
		t.Errorf("verifyToken() failed: %v", err)
	}

	// tampered token fails
	if err = verifyToken(usr, token+"x", conf); err == nil {
		t.Error("verifyToken() accepted a tampered token")
	}

	// other user's token fails
	other := User{ID: "0b37cf29-24ee-4285-93c4-6a10d7afebc0", Username: "king"}
	_ = other.SetPassword("0th3rPa$$!")
	if err = verifyToken(other, token, conf); err == nil {
		t.Error("verifyToken() accepted another user's token")
	}

	// password change invalidates the token
	_ = usr.SetPassword("n3wPa$$w0rd!")
	if err = verifyToken(usr, token, conf); err == nil {
		t.Error("verifyToken() accepted a token issued before a password change")
	}
}

func Test_MakeToken_expiry(t *testing.T) {
	conf := testConfig()
	usr := User{ID: "d791b261-d33c-42d4-88ff-d5ffe156e05e", Username: "awe"}
	_ = usr.SetPassword("t3stPa$$!")

	// issue a token in the past, beyond the timeout
	NowFunc = func() time.Time { return time.Now().Add(-4 * 24 * time.Hour) }
	token, err := MakeToken(usr, conf)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}
	NowFunc = time.Now

	if err = verifyToken(usr, token, conf); err != errTokenExpired {
		t.Errorf("verifyToken() = %v; want %v", err, errTokenExpired)
	}
}
