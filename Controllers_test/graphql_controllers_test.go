package Controllers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type graphResult struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (a *testApp) graphql(t *testing.T, token, query string, vars map[string]interface{}) graphResult {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/graphql", token, map[string]interface{}{
		"query":     query,
		"variables": vars,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res graphResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestGraphQLAgreesWithREST(t *testing.T) {
	app := setupApp(t)
	teacher, _ := app.registerAndLogin(t, "teacher_kiki", "teacher")
	student, studentID := app.registerAndLogin(t, "siswa_lala", "student")
	outsider, _ := app.registerAndLogin(t, "siswa_mira", "student")

	w := app.do(t, http.MethodPost, "/api/v1/journals", teacher, map[string]interface{}{
		"title":       "Poetry",
		"student_ids": []uint{studentID},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var journal journalJSON
	decodeData(t, w, &journal)

	// draft is null for the student
	res := app.graphql(t, student, `query($id: Int!) { journal(id: $id) { id title } }`, map[string]interface{}{"id": journal.ID})
	assert.Empty(t, res.Errors)
	assert.JSONEq(t, "null", string(res.Data["journal"]))

	// students cannot publish
	res = app.graphql(t, student, `mutation($id: Int!) { publishJournal(id: $id) { id } }`, map[string]interface{}{"id": journal.ID})
	assert.NotEmpty(t, res.Errors)

	res = app.graphql(t, teacher, `mutation($id: Int!) { publishJournal(id: $id) { id isPublished taggedStudents { studentId } } }`, map[string]interface{}{"id": journal.ID})
	require.Empty(t, res.Errors)
	var published struct {
		IsPublished    bool `json:"isPublished"`
		TaggedStudents []struct {
			StudentID uint `json:"studentId"`
		} `json:"taggedStudents"`
	}
	require.NoError(t, json.Unmarshal(res.Data["publishJournal"], &published))
	assert.True(t, published.IsPublished)
	require.Len(t, published.TaggedStudents, 1)
	assert.Equal(t, studentID, published.TaggedStudents[0].StudentID)

	res = app.graphql(t, student, `query($id: Int!) { journal(id: $id) { title isPublished } }`, map[string]interface{}{"id": journal.ID})
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"title":"Poetry","isPublished":true}`, string(res.Data["journal"]))

	res = app.graphql(t, outsider, `query($id: Int!) { journal(id: $id) { title } }`, map[string]interface{}{"id": journal.ID})
	assert.JSONEq(t, "null", string(res.Data["journal"]))

	// notifications and read marking
	res = app.graphql(t, student, `{ me { username userType } unreadNotifications { id message } }`, nil)
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `{"username":"siswa_lala","userType":"student"}`, string(res.Data["me"]))
	var unread []struct {
		ID      int    `json:"id"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(res.Data["unreadNotifications"], &unread))
	require.Len(t, unread, 1)

	res = app.graphql(t, outsider, `mutation($id: Int!) { markNotificationAsRead(notificationId: $id) }`, map[string]interface{}{"id": unread[0].ID})
	assert.JSONEq(t, "false", string(res.Data["markNotificationAsRead"]))

	res = app.graphql(t, student, `mutation($id: Int!) { markNotificationAsRead(notificationId: $id) }`, map[string]interface{}{"id": unread[0].ID})
	assert.JSONEq(t, "true", string(res.Data["markNotificationAsRead"]))

	res = app.graphql(t, student, `mutation { markAllNotificationsAsRead }`, nil)
	assert.JSONEq(t, "0", string(res.Data["markAllNotificationsAsRead"]))

	res = app.graphql(t, teacher, `{ journals { id } notifications { id } }`, nil)
	require.Empty(t, res.Errors)
	assert.JSONEq(t, `[{"id":`+itoa(journal.ID)+`}]`, string(res.Data["journals"]))
	assert.JSONEq(t, `[]`, string(res.Data["notifications"]))
}
