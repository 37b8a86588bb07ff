package certificate_test

import (
	"bytes"
	"image/png"
	"regexp"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/learnhub/core/certificate"
	"github.com/trezcool/learnhub/storage/database/inmem"
)

var numberRegex = regexp.MustCompile(`^LH-[0-9A-Z]+-[0-9A-F]{4}$`)

func setup(t *testing.T) certificate.Service {
	t.Helper()
	db, err := inmem.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return certificate.NewService(inmem.NewCertificateRepository(db))
}

func issue(t *testing.T, svc certificate.Service, userID, courseID string) certificate.Certificate {
	t.Helper()
	cert, err := svc.Issue(userID, courseID, "Go Basics", "Jane Doe", "John Roe", []string{"go"})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	return cert
}

func TestService_Issue(t *testing.T) {
	svc := setup(t)

	cert := issue(t, svc, "u1", "c1")
	if cert.ID == "" {
		t.Error("Issue() did not assign an ID")
	}
	if !numberRegex.MatchString(cert.Number) {
		t.Errorf("Number = %q; want LH-<ts>-<rand>", cert.Number)
	}
	if cert.CompletionDate.IsZero() || time.Since(cert.CompletionDate) > time.Minute {
		t.Errorf("CompletionDate = %v", cert.CompletionDate)
	}

	t.Run("at most one per user and course", func(t *testing.T) {
		_, err := svc.Issue("u1", "c1", "Go Basics", "Jane Doe", "John Roe", nil)
		if errors.Cause(err) != certificate.ErrAlreadyIssued {
			t.Errorf("Issue() = %v; want %v", err, certificate.ErrAlreadyIssued)
		}
	})

	t.Run("other courses still allowed", func(t *testing.T) {
		other := issue(t, svc, "u1", "c2")
		if other.Number == cert.Number {
			t.Error("certificate numbers must be unique")
		}
	})
}

func TestService_ListAndGet(t *testing.T) {
	svc := setup(t)

	cert := issue(t, svc, "u1", "c1")
	issue(t, svc, "u2", "c1")

	certs, err := svc.ListByUser("u1")
	if err != nil {
		t.Fatalf("ListByUser() failed: %v", err)
	}
	if len(certs) != 1 || certs[0].ID != cert.ID {
		t.Errorf("ListByUser() = %+v", certs)
	}

	if _, err = svc.Get("u1", cert.ID); err != nil {
		t.Errorf("Get() failed: %v", err)
	}
	// another user cannot read it
	if _, err = svc.Get("u2", cert.ID); errors.Cause(err) != certificate.ErrNotFound {
		t.Errorf("Get() = %v; want %v", err, certificate.ErrNotFound)
	}
}

func TestService_Verify(t *testing.T) {
	svc := setup(t)
	cert := issue(t, svc, "u1", "c1")

	got, err := svc.Verify(cert.Number)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if got.ID != cert.ID {
		t.Errorf("Verify() = %+v", got)
	}

	if _, err = svc.Verify("LH-FAKE-0000"); errors.Cause(err) != certificate.ErrNotFound {
		t.Errorf("Verify() = %v; want %v", err, certificate.ErrNotFound)
	}
}

func TestTemplateByID(t *testing.T) {
	if tpl := certificate.TemplateByID("classic"); tpl.ID != "classic" {
		t.Errorf("TemplateByID(classic) = %+v", tpl)
	}
	if tpl := certificate.TemplateByID("nope"); tpl.ID != certificate.Templates[0].ID {
		t.Errorf("TemplateByID(nope) = %+v; want default", tpl)
	}
}

func TestRender(t *testing.T) {
	cert := certificate.Certificate{
		CourseName:     "Go Basics",
		StudentName:    "Jane Doe",
		InstructorName: "John Roe",
		CompletionDate: time.Now().UTC(),
		Number:         "LH-TEST-0001",
		Skills:         []string{"go", "testing"},
	}

	data, err := certificate.Render(cert, certificate.TemplateByID("modern"))
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Render() did not produce a valid PNG: %v", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		t.Errorf("empty image: %v", img.Bounds())
	}
}
