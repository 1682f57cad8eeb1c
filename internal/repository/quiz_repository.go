package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const quizCacheKeyPrefix = "quiz:module:"

type QuizRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	TTL   time.Duration
}

// NewQuizRepository rdb 可为 nil，此时不走缓存
func NewQuizRepository(db *gorm.DB, rdb *redis.Client, ttl time.Duration) *QuizRepository {
	return &QuizRepository{DB: db, Redis: rdb, TTL: ttl}
}

func quizCacheKey(moduleID uint) string {
	return fmt.Sprintf("%s%d", quizCacheKeyPrefix, moduleID)
}

func (r *QuizRepository) withQuestions(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("`order` asc, id asc")
	})
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.withQuestions(ctx).First(&quiz, quizID).Error; err != nil {
		return nil, translateErr(err, "quiz")
	}
	if err := decodeQuiz(&quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// GetQuizByModule 先读 Redis，未命中再查库并回填
func (r *QuizRepository) GetQuizByModule(ctx context.Context, moduleID uint) (*model.Quiz, error) {
	if quiz, ok := r.readCache(ctx, moduleID); ok {
		return quiz, nil
	}

	var quiz model.Quiz
	if err := r.withQuestions(ctx).Where("module_id = ?", moduleID).First(&quiz).Error; err != nil {
		return nil, translateErr(err, "quiz")
	}
	if err := decodeQuiz(&quiz); err != nil {
		return nil, err
	}

	r.writeCache(ctx, &quiz)
	return &quiz, nil
}

// SaveQuiz 整体替换：题目先删后插
func (r *QuizRepository) SaveQuiz(ctx context.Context, quiz *model.Quiz) error {
	if err := encodeQuiz(quiz); err != nil {
		return err
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		questions := quiz.Questions
		quiz.Questions = nil

		if quiz.ID == 0 {
			var existing model.Quiz
			err := tx.Where("module_id = ?", quiz.ModuleID).First(&existing).Error
			if err == nil {
				quiz.ID = existing.ID
				quiz.CreatedAt = existing.CreatedAt
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if err := tx.Save(quiz).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("quiz_id = ?", quiz.ID).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].ID = 0
			questions[i].QuizID = quiz.ID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		quiz.Questions = questions
		return nil
	})
	if err != nil {
		return translateErr(err, "save quiz")
	}

	r.invalidate(ctx, quiz.ModuleID)
	return nil
}

func (r *QuizRepository) DeleteQuiz(ctx context.Context, quizID uint) error {
	var quiz model.Quiz
	if err := r.DB.WithContext(ctx).First(&quiz, quizID).Error; err != nil {
		return translateErr(err, "quiz")
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("quiz_id = ?", quizID).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&quiz).Error
	})
	if err != nil {
		return translateErr(err, "delete quiz")
	}
	r.invalidate(ctx, quiz.ModuleID)
	return nil
}

func (r *QuizRepository) readCache(ctx context.Context, moduleID uint) (*model.Quiz, bool) {
	if r.Redis == nil {
		return nil, false
	}
	data, err := r.Redis.Get(ctx, quizCacheKey(moduleID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("quiz cache read failed", zap.Uint("moduleId", moduleID), zap.Error(err))
		}
		return nil, false
	}
	var quiz model.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		r.invalidate(ctx, moduleID)
		return nil, false
	}
	if err := decodeQuiz(&quiz); err != nil {
		r.invalidate(ctx, moduleID)
		return nil, false
	}
	return &quiz, true
}

func (r *QuizRepository) writeCache(ctx context.Context, quiz *model.Quiz) {
	if r.Redis == nil {
		return
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		return
	}
	if err := r.Redis.Set(ctx, quizCacheKey(quiz.ModuleID), data, r.TTL).Err(); err != nil {
		logger.Log.Warn("quiz cache write failed", zap.Uint("moduleId", quiz.ModuleID), zap.Error(err))
	}
}

func (r *QuizRepository) invalidate(ctx context.Context, moduleID uint) {
	if r.Redis == nil {
		return
	}
	if err := r.Redis.Del(ctx, quizCacheKey(moduleID)).Err(); err != nil {
		logger.Log.Warn("quiz cache invalidate failed", zap.Uint("moduleId", moduleID), zap.Error(err))
	}
}
