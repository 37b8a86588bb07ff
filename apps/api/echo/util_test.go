package echoapi

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/learnhub/core"
	"github.com/trezcool/learnhub/core/certificate"
	"github.com/trezcool/learnhub/core/course"
	"github.com/trezcool/learnhub/core/forum"
	"github.com/trezcool/learnhub/core/progress"
	"github.com/trezcool/learnhub/core/user"
	emailsvc "github.com/trezcool/learnhub/services/email"
	logsvc "github.com/trezcool/learnhub/services/logger"
	storagesvc "github.com/trezcool/learnhub/services/storage"
	"github.com/trezcool/learnhub/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app     *Server
	conf    *core.Config
	usrRepo user.Repository
	usrSvc  user.Service
	crsSvc  course.Service
	frmSvc  forum.Service
	prgSvc  progress.Service
	crtSvc  certificate.Service
}

func setupServer(t *testing.T) testEnv {
	t.Helper()

	conf := &core.Config{
		TestMode:                  true,
		AppName:                   "LearnHub",
		SecretKey:                 []byte("test-secret"),
		FrontendBaseURL:           "http://localhost:8080",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Storage: core.StorageConfig{Root: t.TempDir()},
	}

	db, err := inmem.Open()
	if err != nil {
		t.Fatalf("setupServer() failed: %v", err)
	}
	usrRepo := inmem.NewUserRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	crsSvc := course.NewService(inmem.NewCourseRepository(db))
	frmSvc := forum.NewService(inmem.NewForumRepository(db))
	crtSvc := certificate.NewService(inmem.NewCertificateRepository(db))
	prgSvc := progress.NewService(inmem.NewProgressRepository(db), crsSvc, usrSvc, crtSvc, mailSvc)

	storage, err := storagesvc.NewFSStorage(conf)
	if err != nil {
		t.Fatalf("setupServer() failed: %v", err)
	}

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)

	validate, translator := core.NewValidators()

	app := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		CourseSvc:      crsSvc,
		ForumSvc:       frmSvc,
		ProgressSvc:    prgSvc,
		CertificateSvc: crtSvc,
		FileStorage:    storage,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	return testEnv{
		app:     app,
		conf:    conf,
		usrRepo: usrRepo,
		usrSvc:  usrSvc,
		crsSvc:  crsSvc,
		frmSvc:  frmSvc,
		prgSvc:  prgSvc,
		crtSvc:  crtSvc,
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func createUser(t *testing.T, repo user.Repository, name, email, pwd, role string, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	l1, ok1 := j1.([]interface{})
	l2, ok2 := j2.([]interface{})
	if ok1 && ok2 {
		return assert.ElementsMatch(t, l1, l2), nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
