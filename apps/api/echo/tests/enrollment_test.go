package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/nexus-reussite/backend/core/content"
	"github.com/nexus-reussite/backend/core/enrollment"
	"github.com/nexus-reussite/backend/core/notification"
	"github.com/nexus-reussite/backend/core/user"
	emailsvc "github.com/nexus-reussite/backend/services/email"
	testutil "github.com/nexus-reussite/backend/tests"
)

func createFormulaReq(t *testing.T, token string) enrollment.Formula {
	body := marchallObj(t, enrollment.NewFormula{
		Name:            "Excellence Maths",
		Description:     "Accompagnement intensif en mathématiques.",
		Subjects:        []content.Subject{content.SubjectMathematics},
		HoursPerWeek:    4,
		MonthlyPriceTND: 320,
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/formulas", token, body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var formula enrollment.Formula
	if err := json.Unmarshal(rec.Body.Bytes(), &formula); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	return formula
}

func Test_enrollmentApi_formulas(t *testing.T) {
	db.Reset()

	student := testutil.CreateUser(t, usrRepo, "Salim Gueye", "salim", "salim@nexus.tn", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@nexus.tn", "", []string{user.RoleAdmin}, true)

	studentToken := getToken(t, student)
	adminToken := getToken(t, admin)

	t.Run("create is admin-only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/formulas", studentToken, marchallObj(t, enrollment.NewFormula{}))
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("create requires name and subjects", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/formulas", adminToken)
		app.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":           "this field is required",
				"subjects":       "this field is required",
				"hours_per_week": "hours_per_week must be 1 or greater",
			}),
		}
		checkCodeAndData(t, tt, rec)
	})

	formula := createFormulaReq(t, adminToken)

	t.Run("anyone authed can list formulas", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/formulas", studentToken)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, formula)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("destroy is admin-only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/formulas/"+formula.ID, studentToken)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("admin destroys formula", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/formulas/"+formula.ID, adminToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
	})
}

func Test_enrollmentApi_enrollmentLifecycle(t *testing.T) {
	db.Reset()
	emailsvc.SentMessages = nil

	student := testutil.CreateUser(t, usrRepo, "Salim Gueye", "salim", "salim@nexus.tn", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, usrRepo, "Awa Ba", "awa", "awa@nexus.tn", "", []string{user.RoleStudent}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@nexus.tn", "", []string{user.RoleAdmin}, true)

	studentToken := getToken(t, student)
	adminToken := getToken(t, admin)

	formula := createFormulaReq(t, adminToken)

	enrollBody := func(studentID string) []byte {
		return marchallObj(t, enrollment.NewEnrollment{StudentID: studentID, FormulaID: formula.ID})
	}

	t.Run("students cannot enroll someone else", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments", studentToken, enrollBody(other.ID))
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("unknown formula", func(t *testing.T) {
		body := marchallObj(t, enrollment.NewEnrollment{StudentID: student.ID, FormulaID: "nope"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments", studentToken, body)
		app.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"formula_id": "formula not found"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	var enr enrollment.Enrollment
	t.Run("student enrolls self", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments", studentToken, enrollBody(student.ID))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if enr.Status != enrollment.StatusPending || enr.StudentID != student.ID {
			t.Errorf("failed! unexpected enrollment %+v", enr)
		}
	})

	t.Run("double enrollment is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments", studentToken, enrollBody(student.ID))
		app.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "student already has an active enrollment for this formula"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("other students cannot see it", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/enrollments/"+enr.ID, getToken(t, other))
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("activate is admin-only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/"+enr.ID+"/activate", studentToken)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("admin activates enrollment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/"+enr.ID+"/activate", adminToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var activated enrollment.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &activated); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if activated.Status != enrollment.StatusActive || activated.StartedAt.IsZero() {
			t.Errorf("failed! unexpected enrollment %+v", activated)
		}

		// welcome email
		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("failed! emails sent = %d; want 1", len(emailsvc.SentMessages))
		}
		if subject := emailsvc.SentMessages[0].Subject; subject != "Votre inscription est confirmée" {
			t.Errorf("failed! subject = %q", subject)
		}
	})

	t.Run("student is notified", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications", studentToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var notifs []notification.Notification
		if err := json.Unmarshal(rec.Body.Bytes(), &notifs); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if len(notifs) != 1 || notifs[0].Kind != notification.KindEnrollmentActivated {
			t.Fatalf("failed! unexpected notifications %+v", notifs)
		}
		if notifs[0].Data["enrollment_id"] != enr.ID {
			t.Errorf("failed! data = %v", notifs[0].Data)
		}
	})

	t.Run("student cancels own enrollment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/enrollments/"+enr.ID+"/cancel", studentToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var cancelled enrollment.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &cancelled); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if cancelled.Status != enrollment.StatusCancelled {
			t.Errorf("failed! status = %s", cancelled.Status)
		}
	})
}
