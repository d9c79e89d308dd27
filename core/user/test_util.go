package user

import (
	"github.com/nexus-reussite/backend/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a ServiceInterface whose side effects run synchronously,
// so tests can assert on sent emails without races.
func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config) ServiceInterface {
	return &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
			conf:    conf,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(email string) error {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
