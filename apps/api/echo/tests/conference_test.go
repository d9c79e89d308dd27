package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/nexus-reussite/backend/core/conference"
	"github.com/nexus-reussite/backend/core/content"
	"github.com/nexus-reussite/backend/core/user"
	testutil "github.com/nexus-reussite/backend/tests"
)

func Test_conferenceApi_roomLifecycle(t *testing.T) {
	db.Reset()

	student := testutil.CreateUser(t, usrRepo, "Salim Gueye", "salim", "salim@nexus.tn", "", []string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Mme Diallo", "diallo", "diallo@nexus.tn", "", []string{user.RoleTeacher}, true)

	studentToken := getToken(t, student)
	teacherToken := getToken(t, teacher)

	start := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	newRoom := marchallObj(t, conference.NewRoom{
		Name:           "Révisions bac : dérivation",
		Subject:        content.SubjectMathematics,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Hour),
	})

	t.Run("schedule is teacher-only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/rooms", studentToken, newRoom)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		checkCodeAndData(t, tt, rec)
	})

	var room conference.Room
	t.Run("teacher schedules a room", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/rooms", teacherToken, newRoom)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &room); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if room.Status != conference.StatusScheduled || room.HostID != teacher.ID {
			t.Errorf("failed! unexpected room %+v", room)
		}
	})

	t.Run("overlapping slot is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/rooms", teacherToken, newRoom)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	var joinToken string
	t.Run("student joins", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/rooms/"+room.ID+"/join", studentToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var respData struct {
			Room      conference.Room `json:"room"`
			JoinToken string          `json:"join_token"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !respData.Room.HasParticipant(student.ID) || respData.JoinToken == "" {
			t.Errorf("failed! unexpected join response %+v", respData)
		}
		joinToken = respData.JoinToken
	})

	t.Run("re-join returns the same token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/rooms/"+room.ID+"/join", studentToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var respData struct {
			JoinToken string `json:"join_token"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if respData.JoinToken != joinToken {
			t.Errorf("failed! token changed: %q != %q", respData.JoinToken, joinToken)
		}
	})

	t.Run("start is host-only", func(t *testing.T) {
		other := testutil.CreateUser(t, usrRepo, "M. Ben Ali", "benali", "benali@nexus.tn", "", []string{user.RoleTeacher}, true)
		req, rec := newAuthRequest(http.MethodPost, "/v1/rooms/"+room.ID+"/start", getToken(t, other))
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "only the host may do this"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("host starts and ends the room", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/rooms/"+room.ID+"/start", teacherToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var live conference.Room
		if err := json.Unmarshal(rec.Body.Bytes(), &live); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if live.Status != conference.StatusLive || live.StartedAt.IsZero() {
			t.Errorf("failed! unexpected room %+v", live)
		}

		req, rec = newAuthRequest(http.MethodPost, "/v1/rooms/"+room.ID+"/end", teacherToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var ended conference.Room
		if err := json.Unmarshal(rec.Body.Bytes(), &ended); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if ended.Status != conference.StatusEnded || ended.EndedAt.IsZero() {
			t.Errorf("failed! unexpected room %+v", ended)
		}
	})

	t.Run("joining an ended room fails", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/rooms/"+room.ID+"/join", studentToken)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "room has ended"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("query by host", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/rooms?host_id="+teacher.ID, studentToken)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var rooms []conference.Room
		if err := json.Unmarshal(rec.Body.Bytes(), &rooms); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if len(rooms) != 1 || rooms[0].ID != room.ID {
			t.Errorf("failed! unexpected rooms %+v", rooms)
		}
	})
}
