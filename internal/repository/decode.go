package repository

import (
	"encoding/json"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 数据库中的记录在进入业务层前统一在这里校验/纠正，每种实体一个函数

var validate = validator.New()

// translateErr 把 gorm 错误归类为 NotFound / FetchFailure
func translateErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(util.ErrNotFound, what)
	}
	return errors.Wrapf(util.ErrFetchFailure, "%s: %v", what, err)
}

func corrupt(what string, err error) error {
	return errors.Wrapf(util.ErrCorruptRecord, "%s: %v", what, err)
}

func decodeQuiz(q *model.Quiz) error {
	sort.SliceStable(q.Questions, func(i, j int) bool {
		if q.Questions[i].Order != q.Questions[j].Order {
			return q.Questions[i].Order < q.Questions[j].Order
		}
		return q.Questions[i].ID < q.Questions[j].ID
	})

	for i := range q.Questions {
		qq := &q.Questions[i]
		if len(qq.RawOptions) > 0 {
			var opts []string
			if err := json.Unmarshal(qq.RawOptions, &opts); err != nil {
				return corrupt("quiz question options", err)
			}
			qq.Options = opts
		}
		if n := len(qq.Options); n > 0 && (qq.CorrectIndex < 0 || qq.CorrectIndex > n-1) {
			logger.Log.Warn("correct index out of range, clamped",
				zap.Uint("questionId", qq.ID),
				zap.Int("correctIndex", qq.CorrectIndex),
				zap.Int("options", n))
			qq.CorrectIndex = util.ClampIndex(qq.CorrectIndex, n)
		}
	}

	if err := validate.Struct(q); err != nil {
		return corrupt("quiz", err)
	}
	return nil
}

// encodeQuiz 写库前把 Options 序列化到 options 列
func encodeQuiz(q *model.Quiz) error {
	for i := range q.Questions {
		raw, err := json.Marshal(q.Questions[i].Options)
		if err != nil {
			return err
		}
		q.Questions[i].RawOptions = raw
		q.Questions[i].Order = i
	}
	return nil
}

func decodeModule(m *model.Module) error {
	if err := validate.Struct(m); err != nil {
		return corrupt("module", err)
	}
	return nil
}

func decodeCourse(c *model.Course) error {
	if err := validate.Struct(c); err != nil {
		return corrupt("course", err)
	}
	if c.PassThreshold < 0 || c.PassThreshold > 100 {
		c.PassThreshold = 0
	}
	sort.SliceStable(c.Modules, func(i, j int) bool {
		if c.Modules[i].Order != c.Modules[j].Order {
			return c.Modules[i].Order < c.Modules[j].Order
		}
		return c.Modules[i].ID < c.Modules[j].ID
	})
	for i := range c.Modules {
		if err := decodeModule(&c.Modules[i]); err != nil {
			return err
		}
	}
	return nil
}

func decodeCertificate(c *model.Certificate) error {
	if err := validate.Struct(c); err != nil {
		return corrupt("certificate", err)
	}
	if _, err := c.IssuedAt(); err != nil {
		return corrupt("certificate issue date", err)
	}
	return nil
}

func decodeUser(u *model.User) error {
	if err := validate.Struct(u); err != nil {
		return corrupt("user", err)
	}
	if strings.TrimSpace(u.Name) == "" {
		u.Name = strings.SplitN(u.Email, "@", 2)[0]
	}
	u.EnrolledCourseIDs = make([]uint, 0, len(u.Enrollments))
	for _, e := range u.Enrollments {
		u.EnrolledCourseIDs = append(u.EnrolledCourseIDs, e.CourseID)
	}
	if u.Certificates == nil {
		u.Certificates = []model.Certificate{}
	}
	for i := range u.Certificates {
		if err := decodeCertificate(&u.Certificates[i]); err != nil {
			return err
		}
	}
	return nil
}
