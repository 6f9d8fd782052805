package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariebrainware/patient-intake/model"
	"gorm.io/gorm"
)

// ErrStorage wraps every failure of the backing store. Callers only learn that the
// operation failed.
var ErrStorage = errors.New("storage error")

// PatientGateway mediates all reads and writes of patient records.
type PatientGateway interface {
	Insert(ctx context.Context, p model.Patient) (model.Patient, error)
	FetchAll(ctx context.Context) ([]model.Patient, error)
}

// PatientStore is the gorm implementation of PatientGateway. Each call acquires a
// connection from the pool for one statement and releases it when the statement ends.
type PatientStore struct {
	db *gorm.DB
}

func NewPatientStore(db *gorm.DB) *PatientStore {
	return &PatientStore{db: db}
}

// Insert stores p with a single parameterized INSERT and returns it with its new id.
// A nil Info is bound as NULL.
func (s *PatientStore) Insert(ctx context.Context, p model.Patient) (model.Patient, error) {
	if s.db == nil {
		return model.Patient{}, fmt.Errorf("%w: database not initialized", ErrStorage)
	}
	p.ID = 0
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Patient{}, fmt.Errorf("%w: insert patient: %v", ErrStorage, err)
	}
	return p, nil
}

// FetchAll returns every stored record in the store's default scan order.
func (s *PatientStore) FetchAll(ctx context.Context) ([]model.Patient, error) {
	if s.db == nil {
		return nil, fmt.Errorf("%w: database not initialized", ErrStorage)
	}
	patients := make([]model.Patient, 0)
	if err := s.db.WithContext(ctx).Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("%w: fetch patients: %v", ErrStorage, err)
	}
	return patients, nil
}
