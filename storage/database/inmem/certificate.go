package inmem

import (
	"sort"

	"github.com/trezcool/learnhub/core/certificate"
)

type certificateRepository struct {
	db *certificateTable
}

var _ certificate.Repository = (*certificateRepository)(nil) // interface compliance check

func NewCertificateRepository(db *DB) certificate.Repository {
	return &certificateRepository{db: db.certificate}
}

func (repo *certificateRepository) CreateCertificate(cert certificate.Certificate) (certificate.Certificate, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, c := range repo.db.table {
		if c.UserID == cert.UserID && c.CourseID == cert.CourseID {
			return certificate.Certificate{}, certificate.ErrAlreadyIssued
		}
	}
	repo.db.table[cert.ID] = &cert
	return cert, nil
}

func (repo *certificateRepository) GetUserCertificates(userID string) ([]certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var certs []certificate.Certificate
	for _, c := range repo.db.table {
		if c.UserID == userID {
			certs = append(certs, *c)
		}
	}
	sort.SliceStable(certs, func(i, j int) bool {
		return certs[i].CompletionDate.After(certs[j].CompletionDate)
	})
	return certs, nil
}

func (repo *certificateRepository) GetCertificateByID(userID, id string) (certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cert, ok := repo.db.table[id]; ok && cert.UserID == userID {
		return *cert, nil
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}

func (repo *certificateRepository) GetCertificateByUserAndCourse(userID, courseID string) (certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.table {
		if c.UserID == userID && c.CourseID == courseID {
			return *c, nil
		}
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}

func (repo *certificateRepository) GetCertificateByNumber(number string) (certificate.Certificate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, c := range repo.db.table {
		if c.Number == number {
			return *c, nil
		}
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}
