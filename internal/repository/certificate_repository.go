package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

// AppendCertificate 证书是 users 下的子表行，追加即 INSERT，不会覆盖并发签发的其它证书
func (r *CertificateRepository) AppendCertificate(ctx context.Context, userID uint, cert *model.Certificate) error {
	cert.UserID = userID
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(cert).Error
	})
	if err != nil {
		return translateErr(err, "append certificate")
	}
	return nil
}

func (r *CertificateRepository) SetCertificateURL(ctx context.Context, certID, url string) error {
	res := r.DB.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ?", certID).
		Update("certificate_url", url)
	if res.Error != nil {
		return translateErr(res.Error, "certificate url")
	}
	if res.RowsAffected == 0 {
		return translateErr(gorm.ErrRecordNotFound, "certificate")
	}
	return nil
}

func (r *CertificateRepository) ListByUser(ctx context.Context, userID uint) ([]model.Certificate, error) {
	var certs []model.Certificate
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at asc").Find(&certs).Error; err != nil {
		return nil, translateErr(err, "certificates")
	}
	for i := range certs {
		if err := decodeCertificate(&certs[i]); err != nil {
			return nil, err
		}
	}
	return certs, nil
}

func (r *CertificateRepository) FindByID(ctx context.Context, id string) (*model.Certificate, error) {
	var cert model.Certificate
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&cert).Error; err != nil {
		return nil, translateErr(err, "certificate")
	}
	if err := decodeCertificate(&cert); err != nil {
		return nil, errors.WithStack(err)
	}
	return &cert, nil
}
