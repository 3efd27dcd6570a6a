package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"english_edu_dashboard/internal/config"
	"english_edu_dashboard/internal/exam"
	"english_edu_dashboard/internal/model"
	"english_edu_dashboard/internal/repository"
	"english_edu_dashboard/pkg/logger"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// StorageProvider 结果快照的对象存储
type StorageProvider interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	URL(key string) string
}

// LocalStorageProvider 本地存储实现
type LocalStorageProvider struct {
	Root string
}

func (p *LocalStorageProvider) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return p.URL(key), nil
}

func (p *LocalStorageProvider) Get(ctx context.Context, key string) ([]byte, error) {
	return os.ReadFile(filepath.Join(p.Root, filepath.FromSlash(key)))
}

func (p *LocalStorageProvider) URL(key string) string {
	return "/archive/" + key
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Bucket string
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Bucket: cfg.MinioBucket, Client: client}, nil
}

func (p *MinioStorageProvider) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.URL(key), nil
}

func (p *MinioStorageProvider) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := p.Client.GetObject(ctx, p.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (p *MinioStorageProvider) URL(key string) string {
	return "/" + p.Bucket + "/" + key
}

// OSSStorageProvider 阿里云OSS存储实现
type OSSStorageProvider struct {
	Endpoint string
	Bucket   string
	Client   *oss.Client
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Endpoint: cfg.OSSEndpoint, Bucket: cfg.OSSBucket, Client: client}, nil
}

func (p *OSSStorageProvider) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	bucket, err := p.Client.Bucket(p.Bucket)
	if err != nil {
		return "", err
	}
	if err := bucket.PutObject(key, reader, oss.ContentType(contentType), oss.WithContext(ctx)); err != nil {
		return "", err
	}
	return p.URL(key), nil
}

func (p *OSSStorageProvider) Get(ctx context.Context, key string) ([]byte, error) {
	bucket, err := p.Client.Bucket(p.Bucket)
	if err != nil {
		return nil, err
	}
	body, err := bucket.GetObject(key, oss.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

func (p *OSSStorageProvider) URL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", p.Bucket, p.Endpoint, key)
}

// NewStorageProvider picks the provider named by storage.type. A remote
// provider that cannot be built falls back to local storage.
func NewStorageProvider(cfg *config.StorageConfig) StorageProvider {
	switch cfg.Type {
	case "minio":
		p, err := NewMinioStorageProvider(cfg)
		if err == nil {
			return p
		}
		logger.Log.Warn("minio storage unavailable, using local archive", zap.Error(err))
	case "oss":
		p, err := NewOSSStorageProvider(cfg)
		if err == nil {
			return p
		}
		logger.Log.Warn("oss storage unavailable, using local archive", zap.Error(err))
	}
	return &LocalStorageProvider{Root: cfg.LocalPath}
}

// ArchivedAttempt is the JSON snapshot written for each submitted mock exam.
type ArchivedAttempt struct {
	UserID      uint                 `json:"user_id"`
	MockID      string               `json:"mock_id"`
	ExamType    string               `json:"exam_type"`
	Trigger     string               `json:"trigger"`
	SubmittedAt time.Time            `json:"submitted_at"`
	Answers     []model.SubmitAnswer `json:"answers"`
	Result      json.RawMessage      `json:"result"`
}

// ArchiveService keeps a copy of every graded attempt in object storage and,
// when a database is configured, an index row per attempt.
type ArchiveService struct {
	Provider StorageProvider
	Repo     *repository.AttemptRepository
}

func NewArchiveService(provider StorageProvider, repo *repository.AttemptRepository) *ArchiveService {
	return &ArchiveService{Provider: provider, Repo: repo}
}

func ArchiveKey(userID uint, mockID string) string {
	return fmt.Sprintf("results/%d/%s.json", userID, mockID)
}

func (s *ArchiveService) Archive(ctx context.Context, userID uint, a exam.FinishedAttempt) (*model.ExamAttemptRecord, error) {
	if a.Result == nil || a.Exam == nil {
		return nil, fmt.Errorf("archive attempt: missing exam or result")
	}

	result := a.Result.Raw
	if len(result) == 0 {
		raw, err := json.Marshal(a.Result)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		result = raw
	}
	answers, err := json.Marshal(a.Request.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	snapshot, err := json.Marshal(ArchivedAttempt{
		UserID:      userID,
		MockID:      a.Exam.MockID,
		ExamType:    a.Exam.ExamType,
		Trigger:     string(a.Trigger),
		SubmittedAt: time.Now().UTC(),
		Answers:     a.Request.Answers,
		Result:      result,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := ArchiveKey(userID, a.Exam.MockID)
	url, err := s.Provider.Put(ctx, key, bytes.NewReader(snapshot), int64(len(snapshot)), "application/json")
	if err != nil {
		return nil, fmt.Errorf("store snapshot %s: %w", key, err)
	}

	record := &model.ExamAttemptRecord{
		UserID:        userID,
		MockID:        a.Exam.MockID,
		ExamType:      a.Exam.ExamType,
		TotalScore:    a.Result.TotalScore,
		MaxScore:      a.Result.MaxScore,
		AnsweredCount: len(a.Request.Answers),
		QuestionCount: a.Exam.QuestionCount(),
		Trigger:       string(a.Trigger),
		Answers:       datatypes.JSON(answers),
		Result:        datatypes.JSON(result),
		ArchiveURL:    url,
	}
	if s.Repo != nil {
		if err := s.Repo.Create(record); err != nil {
			return record, fmt.Errorf("save attempt record: %w", err)
		}
	}

	logger.Log.Info("mock exam archived",
		zap.Uint("userId", userID),
		zap.String("mockId", a.Exam.MockID),
		zap.String("url", url))
	return record, nil
}

// Load reads an archived snapshot back.
func (s *ArchiveService) Load(ctx context.Context, userID uint, mockID string) (*ArchivedAttempt, error) {
	raw, err := s.Provider.Get(ctx, ArchiveKey(userID, mockID))
	if err != nil {
		return nil, err
	}
	var a ArchivedAttempt
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &a, nil
}

// Attempts lists indexed attempts; without a database there are none.
func (s *ArchiveService) Attempts(userID uint, limit int) ([]*model.ExamAttemptRecord, error) {
	if s.Repo == nil {
		return nil, nil
	}
	return s.Repo.ListByUser(userID, limit)
}
