package http

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aninishioka/craft-app/crud"
	"github.com/aninishioka/craft-app/domain"
)

// newTestServer stands up the full stack against an in-memory database.
// CSRF is disabled so the tests can post forms without scraping tokens.
func newTestServer(t *testing.T) (*httptest.Server, *crud.Services) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&domain.User{},
		&domain.Follow{},
		&domain.FollowRequest{},
		&domain.Project{},
		&domain.Yarn{},
		&domain.Needle{},
		&domain.Hook{},
		&domain.TimeLog{},
		&domain.Conversation{},
		&domain.Message{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, size := range []string{"US 1", "US 2"} {
		if err := db.Create(&domain.Needle{Size: size}).Error; err != nil {
			t.Fatalf("seed needle: %v", err)
		}
	}
	if err := db.Create(&domain.Hook{Size: "B-1"}).Error; err != nil {
		t.Fatalf("seed hook: %v", err)
	}

	services, err := crud.NewServices(db,
		crud.WithUser("test-pepper"),
		crud.WithFollow(),
		crud.WithProject(),
		crud.WithTimeLog(),
		crud.WithConversation(),
	)
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	server, err := NewServer(false, []byte("test-session-key"), nil, services)
	if err != nil {
		t.Fatalf("build server: %v", err)
	}
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	return ts, services
}

// newClient returns an http client with a cookie jar, so sessions and
// flashes survive across requests the way a browser carries them.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postForm(t *testing.T, client *http.Client, url string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := client.PostForm(url, form)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

// signup registers a user through the real signup route and returns the
// id the server redirected to.
func signup(t *testing.T, client *http.Client, baseURL, username string) int {
	t.Helper()
	resp, _ := postForm(t, client, baseURL+"/signup", url.Values{
		"username": {username},
		"email":    {username + "@example.com"},
		"password": {"password"},
	})
	path := resp.Request.URL.Path
	if !strings.HasPrefix(path, "/users/") {
		t.Fatalf("signup landed on %s, want /users/{id}", path)
	}
	id, err := strconv.Atoi(strings.TrimPrefix(path, "/users/"))
	if err != nil {
		t.Fatalf("parse user id from %s: %v", path, err)
	}
	return id
}

func login(t *testing.T, client *http.Client, baseURL, username string) {
	t.Helper()
	resp, body := postForm(t, client, baseURL+"/login", url.Values{
		"username": {username},
		"password": {"password"},
	})
	if !strings.Contains(body, "Hello, "+username) {
		t.Fatalf("login landed on %s without the greeting flash", resp.Request.URL.Path)
	}
}

func TestSignupConflictKeepsState(t *testing.T) {
	ts, services := newTestServer(t)
	alice := newClient(t)
	signup(t, alice, ts.URL, "alice")

	imposter := newClient(t)
	resp, body := postForm(t, imposter, ts.URL+"/signup", url.Values{
		"username": {"alice"},
		"email":    {"imposter@example.com"},
		"password": {"password"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("conflict signup status = %d, want 200 form re-render", resp.StatusCode)
	}
	if !strings.Contains(body, "Username or email already in use.") {
		t.Error("conflict message missing from the re-rendered signup page")
	}
	// The rejected attempt stored nothing.
	users, err := services.User.Search("")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("got %d users after the rejected signup, want 1", len(users))
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)
	signup(t, client, ts.URL, "alice")

	stranger := newClient(t)
	_, body := postForm(t, stranger, ts.URL+"/login", url.Values{
		"username": {"alice"},
		"password": {"wrong-password"},
	})
	if !strings.Contains(body, "Invalid credentials.") {
		t.Error("failed login did not re-render with the credentials message")
	}
	_, body = postForm(t, stranger, ts.URL+"/login", url.Values{
		"username": {"nobody"},
		"password": {"password"},
	})
	if !strings.Contains(body, "Invalid credentials.") {
		t.Error("unknown user did not get the same unspecific message")
	}
}

func TestAnonymousMutationIsRejected(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)

	resp, body := get(t, client, ts.URL+"/projects/new")
	if resp.Request.URL.Path != "/" {
		t.Errorf("anonymous visit landed on %s, want /", resp.Request.URL.Path)
	}
	if !strings.Contains(body, "Unauthorized") {
		t.Error("unauthorized flash missing from the landing page")
	}
}

func TestFollowPrivateAccountFilesRequest(t *testing.T) {
	ts, services := newTestServer(t)

	bobClient := newClient(t)
	bobID := signup(t, bobClient, ts.URL, "bob")
	postForm(t, bobClient, ts.URL+"/settings/private", url.Values{})

	aliceClient := newClient(t)
	aliceID := signup(t, aliceClient, ts.URL, "alice")

	_, body := postForm(t, aliceClient, ts.URL+"/users/"+strconv.Itoa(bobID)+"/follow", url.Values{})
	if !strings.Contains(body, "Request sent to bob") {
		t.Error("request flash missing after following a private account")
	}

	alice, err := services.User.ByID(aliceID)
	if err != nil {
		t.Fatalf("load alice: %v", err)
	}
	bob, err := services.User.ByID(bobID)
	if err != nil {
		t.Fatalf("load bob: %v", err)
	}
	if requested, _ := services.Follow.HasRequested(alice, bob); !requested {
		t.Error("no pending request stored")
	}
	if following, _ := services.Follow.IsFollowing(alice, bob); following {
		t.Error("a private follow created an edge directly")
	}
}

func TestFollowPublicAccountCreatesEdge(t *testing.T) {
	ts, services := newTestServer(t)

	bobClient := newClient(t)
	bobID := signup(t, bobClient, ts.URL, "bob")

	aliceClient := newClient(t)
	aliceID := signup(t, aliceClient, ts.URL, "alice")

	_, body := postForm(t, aliceClient, ts.URL+"/users/"+strconv.Itoa(bobID)+"/follow", url.Values{})
	if !strings.Contains(body, "Now following bob") {
		t.Error("follow flash missing")
	}
	alice, _ := services.User.ByID(aliceID)
	bob, _ := services.User.ByID(bobID)
	if following, _ := services.Follow.IsFollowing(alice, bob); !following {
		t.Error("no edge stored after following a public account")
	}
}

func TestPrivateProfileHiddenFromStrangers(t *testing.T) {
	ts, _ := newTestServer(t)

	bobClient := newClient(t)
	bobID := signup(t, bobClient, ts.URL, "bob")
	postForm(t, bobClient, ts.URL+"/settings/private", url.Values{})

	aliceClient := newClient(t)
	signup(t, aliceClient, ts.URL, "alice")

	_, body := get(t, aliceClient, ts.URL+"/users/"+strconv.Itoa(bobID))
	if !strings.Contains(body, "Account is private.") {
		t.Error("stranger saw more than the private placeholder")
	}
}

func TestProjectFormRoundTrip(t *testing.T) {
	ts, services := newTestServer(t)
	client := newClient(t)
	aliceID := signup(t, client, ts.URL, "alice")

	// Create with two yarn rows and one catalog needle.
	resp, _ := postForm(t, client, ts.URL+"/projects/new", url.Values{
		"title":             {"Socks"},
		"status":            {"in_progress"},
		"yarns-0-yarn_name": {"Merino"},
		"yarns-0-color":     {"Red"},
		"yarns-1-yarn_name": {"Alpaca"},
		"needles-0-size":    {"US 1"},
	})
	path := resp.Request.URL.Path
	if !strings.HasPrefix(path, "/projects/") {
		t.Fatalf("create landed on %s, want the project page", path)
	}
	projectID, err := strconv.Atoi(strings.TrimPrefix(path, "/projects/"))
	if err != nil {
		t.Fatalf("parse project id from %s: %v", path, err)
	}

	project, err := services.Project.ByID(projectID)
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	if project.UserID != aliceID {
		t.Errorf("project owner = %d, want %d", project.UserID, aliceID)
	}
	if len(project.Yarns) != 2 || len(project.Needles) != 1 {
		t.Fatalf("stored %d yarns and %d needles, want 2 and 1",
			len(project.Yarns), len(project.Needles))
	}

	// Edit down to one yarn and no needles: the submitted sets replace
	// the stored ones completely.
	_, body := postForm(t, client, ts.URL+"/projects/"+strconv.Itoa(projectID)+"/edit", url.Values{
		"title":             {"Socks"},
		"status":            {"finished"},
		"yarns-0-yarn_name": {"Cotton"},
	})
	if !strings.Contains(body, "Changes saved") {
		t.Error("edit flash missing")
	}
	project, err = services.Project.ByID(projectID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if len(project.Yarns) != 1 || project.Yarns[0].YarnName != "Cotton" {
		t.Errorf("yarns after edit = %+v, want the one submitted row", project.Yarns)
	}
	if len(project.Needles) != 0 {
		t.Errorf("needles after edit = %+v, want none", project.Needles)
	}
	if project.Status != domain.StatusFinished {
		t.Errorf("status = %q, want finished", project.Status)
	}
}

func TestStructuralSubmissionNeverSaves(t *testing.T) {
	ts, services := newTestServer(t)
	client := newClient(t)
	signup(t, client, ts.URL, "alice")

	// A valid title plus an add action: re-render with the extra row, no
	// project row.
	resp, body := postForm(t, client, ts.URL+"/projects/new", url.Values{
		"title":  {"Socks"},
		"action": {"add_yarn"},
	})
	if resp.StatusCode != http.StatusOK || resp.Request.URL.Path != "/projects/new" {
		t.Errorf("structural submission landed on %s (%d), want the form page",
			resp.Request.URL.Path, resp.StatusCode)
	}
	if !strings.Contains(body, "yarns-0-yarn_name") {
		t.Error("re-rendered form is missing the added yarn row")
	}
	users, err := services.User.Search("alice")
	if err != nil || len(users) != 1 {
		t.Fatalf("load alice: %v", err)
	}
	stored, err := services.User.ByID(users[0].ID)
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if len(stored.Projects) != 0 {
		t.Errorf("structural submission stored %d projects, want 0", len(stored.Projects))
	}
}

func TestRemoveFlaggedRowOnResubmit(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)
	signup(t, client, ts.URL, "alice")

	_, body := postForm(t, client, ts.URL+"/projects/new", url.Values{
		"title":             {"Socks"},
		"yarns-0-yarn_name": {"Merino"},
		"yarns-1-yarn_name": {"Alpaca"},
		"yarns-0-delete":    {"on"},
	})
	if strings.Contains(body, "Merino") {
		t.Error("flagged row survived the round trip")
	}
	if !strings.Contains(body, "Alpaca") {
		t.Error("unflagged row vanished")
	}
}

func TestNonOwnerCannotMutateProject(t *testing.T) {
	ts, services := newTestServer(t)

	aliceClient := newClient(t)
	signup(t, aliceClient, ts.URL, "alice")
	resp, _ := postForm(t, aliceClient, ts.URL+"/projects/new", url.Values{
		"title": {"Socks"},
	})
	projectID, err := strconv.Atoi(strings.TrimPrefix(resp.Request.URL.Path, "/projects/"))
	if err != nil {
		t.Fatalf("parse project id: %v", err)
	}

	bobClient := newClient(t)
	signup(t, bobClient, ts.URL, "bob")
	resp, body := postForm(t, bobClient, ts.URL+"/projects/"+strconv.Itoa(projectID)+"/edit", url.Values{
		"title": {"Stolen"},
	})
	if resp.Request.URL.Path != "/" {
		t.Errorf("non-owner edit landed on %s, want /", resp.Request.URL.Path)
	}
	if !strings.Contains(body, "Unauthorized") {
		t.Error("unauthorized flash missing")
	}
	project, err := services.Project.ByID(projectID)
	if err != nil {
		t.Fatalf("reload project: %v", err)
	}
	if project.Title != "Socks" {
		t.Errorf("title = %q after the rejected edit, want Socks", project.Title)
	}

	postForm(t, bobClient, ts.URL+"/projects/"+strconv.Itoa(projectID)+"/delete", url.Values{})
	if _, err := services.Project.ByID(projectID); err != nil {
		t.Errorf("project gone after a non-owner delete: %v", err)
	}
}

func TestConfirmRequestFromNotifications(t *testing.T) {
	ts, services := newTestServer(t)

	bobClient := newClient(t)
	bobID := signup(t, bobClient, ts.URL, "bob")
	postForm(t, bobClient, ts.URL+"/settings/private", url.Values{})

	aliceClient := newClient(t)
	aliceID := signup(t, aliceClient, ts.URL, "alice")
	postForm(t, aliceClient, ts.URL+"/users/"+strconv.Itoa(bobID)+"/follow", url.Values{})

	_, body := postForm(t, bobClient, ts.URL+"/requests/"+strconv.Itoa(aliceID)+"/confirm", url.Values{})
	if !strings.Contains(body, "alice is following you now") {
		t.Error("confirmation flash missing")
	}

	alice, _ := services.User.ByID(aliceID)
	bob, _ := services.User.ByID(bobID)
	if following, _ := services.Follow.IsFollowing(alice, bob); !following {
		t.Error("confirmed request produced no edge")
	}
	if requested, _ := services.Follow.HasRequested(alice, bob); requested {
		t.Error("request still pending after confirmation")
	}
}

func TestLogoutEndsSession(t *testing.T) {
	ts, _ := newTestServer(t)
	client := newClient(t)
	signup(t, client, ts.URL, "alice")

	_, body := postForm(t, client, ts.URL+"/logout", url.Values{})
	if !strings.Contains(body, "Logged out") {
		t.Error("logout flash missing")
	}
	resp, _ := get(t, client, ts.URL+"/")
	if resp.Request.URL.Path != "/" {
		t.Errorf("logged out visitor redirected to %s, want the landing page", resp.Request.URL.Path)
	}
}
