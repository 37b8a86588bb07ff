package echoapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/trezcool/learnhub/core/course"
	"github.com/trezcool/learnhub/core/user"
	storagesvc "github.com/trezcool/learnhub/services/storage"
)

func createTestCourse(t *testing.T, svc course.Service, title, category, level string, tags ...string) course.Course {
	t.Helper()
	crs, err := svc.Create(course.NewCourse{
		Title:       title,
		Description: "desc",
		Instructor:  "John Roe",
		Category:    category,
		Level:       level,
		Duration:    "8 weeks",
		Tags:        tags,
	})
	if err != nil {
		t.Fatalf("createTestCourse() failed: %v", err)
	}
	return crs
}

func TestCourseAPI_query(t *testing.T) {
	env := setupServer(t)

	web := createTestCourse(t, env.crsSvc, "Web Dev", "Web Development", course.LevelBeginner, "html")
	data := createTestCourse(t, env.crsSvc, "Data Intro", "Data Science", course.LevelBeginner, "python")

	path := func(params url.Values) string { return "/v1/courses?" + params.Encode() }

	tests := []httpTest{
		// the catalog is public
		{name: "get all", path: "/v1/courses", wantData: marchallList(t, web, data)},
		{name: "search", path: path(url.Values{"search": {"web"}}), wantData: marchallList(t, web)},
		{name: "filter category", path: path(url.Values{"category": {"Data Science"}}), wantData: marchallList(t, data)},
		{name: "unknown search", path: path(url.Values{"search": {"zzz"}}), wantData: marchallList(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			env.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("categories listing", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/courses/categories")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantData: marchallObj(t, course.Categories)}, rec)
	})

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/courses/"+web.ID)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantData: marchallObj(t, web)}, rec)
	})

	t.Run("retrieve unknown", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/courses/nope")
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})
}

func TestCourseAPI_create(t *testing.T) {
	env := setupServer(t)

	student := createUser(t, env.usrRepo, "Stu", "stu@test.cd", "LongSecret1", user.RoleStudent, true)
	teacher := createUser(t, env.usrRepo, "Tea", "tea@test.cd", "LongSecret1", user.RoleTeacher, true)

	body := marchallObj(t, map[string]interface{}{
		"title":       "Go Basics",
		"description": "desc",
		"instructor":  "John Roe",
		"category":    "Programming",
		"level":       course.LevelBeginner,
		"duration":    "8 weeks",
	})

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/courses", body)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("teacher required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", getToken(t, student), body)
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", getToken(t, teacher), body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %v", rec.Code, rec.Body.String())
		}
		var crs course.Course
		if err := json.Unmarshal(rec.Body.Bytes(), &crs); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if crs.ID == "" || crs.Title != "Go Basics" {
			t.Errorf("course = %+v", crs)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		bad := marchallObj(t, map[string]interface{}{
			"title": "X", "description": "d", "instructor": "i",
			"category": "c", "level": "Wizard", "duration": "8 weeks",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses", getToken(t, teacher), bad)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestCourseAPI_enroll(t *testing.T) {
	env := setupServer(t)

	student := createUser(t, env.usrRepo, "Stu", "stu@test.cd", "LongSecret1", user.RoleStudent, true)
	crs := createTestCourse(t, env.crsSvc, "Go Basics", "Programming", course.LevelBeginner)
	token := getToken(t, student)

	t.Run("enroll", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %v", rec.Code, rec.Body.String())
		}

		got, _ := env.crsSvc.GetByID(crs.ID)
		if got.StudentsEnrolled != 1 {
			t.Errorf("StudentsEnrolled = %v; want 1", got.StudentsEnrolled)
		}
		// progress tracking starts alongside
		if _, err := env.prgSvc.Get(student.ID, crs.ID); err != nil {
			t.Errorf("progress not tracked: %v", err)
		}
	})

	t.Run("re-enrolling does not double count", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %v", rec.Code, rec.Body.String())
		}
		got, _ := env.crsSvc.GetByID(crs.ID)
		if got.StudentsEnrolled != 1 {
			t.Errorf("StudentsEnrolled = %v; want 1", got.StudentsEnrolled)
		}
	})

	t.Run("enrolled listing", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/enrolled", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %v", rec.Code, rec.Body.String())
		}
		var courses []course.Course
		if err := json.Unmarshal(rec.Body.Bytes(), &courses); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(courses) != 1 || courses[0].ID != crs.ID {
			t.Errorf("enrolled = %+v", courses)
		}
	})
}

func TestCourseAPI_materials(t *testing.T) {
	env := setupServer(t)

	teacher := createUser(t, env.usrRepo, "Tea", "tea@test.cd", "LongSecret1", user.RoleTeacher, true)
	student := createUser(t, env.usrRepo, "Stu", "stu@test.cd", "LongSecret1", user.RoleStudent, true)
	crs := createTestCourse(t, env.crsSvc, "Go Basics", "Programming", course.LevelBeginner)

	upload := func(t *testing.T, token, filename, content string) *httptest.ResponseRecorder {
		t.Helper()
		var buff bytes.Buffer
		w := multipart.NewWriter(&buff)
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile() failed: %v", err)
		}
		if _, err = fw.Write([]byte(content)); err != nil {
			t.Fatalf("writing form file: %v", err)
		}
		w.Close()

		req := httptest.NewRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/materials", &buff)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.app.ServeHTTP(rec, req)
		return rec
	}

	t.Run("upload requires teacher", func(t *testing.T) {
		rec := upload(t, getToken(t, student), "notes.pdf", "content")
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("upload", func(t *testing.T) {
		rec := upload(t, getToken(t, teacher), "notes.pdf", "pdf bytes")
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body %v", rec.Code, rec.Body.String())
		}
		var fi storagesvc.FileInfo
		if err := json.Unmarshal(rec.Body.Bytes(), &fi); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if fi.Name != "notes.pdf" || fi.Type != "pdf" || fi.Size != int64(len("pdf bytes")) {
			t.Errorf("FileInfo = %+v", fi)
		}
	})

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/materials", getToken(t, student))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %v", rec.Code, rec.Body.String())
		}
		var files []storagesvc.FileInfo
		if err := json.Unmarshal(rec.Body.Bytes(), &files); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(files) != 1 || files[0].Name != "notes.pdf" {
			t.Errorf("files = %+v", files)
		}
	})

	t.Run("download", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/materials/notes.pdf", getToken(t, student))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body %v", rec.Code, rec.Body.String())
		}
		if rec.Body.String() != "pdf bytes" {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("download unknown", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/materials/nope.pdf", getToken(t, student))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("delete requires teacher", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/courses/"+crs.ID+"/materials/notes.pdf", getToken(t, student))
		env.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/courses/"+crs.ID+"/materials/notes.pdf", getToken(t, teacher))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusNoContent)
		}
	})
}
