package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/brandpilot/brandpilot-backend/internal/logger"
	"github.com/brandpilot/brandpilot-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

var testDBSeq atomic.Int64

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&types.BrandKit{},
		&types.BrandMemory{},
		&types.CreativeBrief{},
		&types.CreativePack{},
		&types.CreativeAsset{},
		&types.AICallLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// fakeAIClient scripts chat/vision replies for workflow and quality tests.
type fakeAIClient struct {
	mu sync.Mutex

	chatReply string
	chatErr   error
	chatCalls int

	visionReply string
	visionErr   error
	visionCalls int

	jsonReply map[string]any
	jsonErr   error
	jsonCalls int
}

func (f *fakeAIClient) Chat(ctx context.Context, system string, history []types.ChatMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls++
	return f.chatReply, f.chatErr
}

func (f *fakeAIClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jsonCalls++
	return f.jsonReply, f.jsonErr
}

func (f *fakeAIClient) ChatVision(ctx context.Context, system, user, imageURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visionCalls++
	return f.visionReply, f.visionErr
}

func (f *fakeAIClient) Name() string  { return "openai" }
func (f *fakeAIClient) Model() string { return "fake-image-model" }

func (f *fakeAIClient) GenerateImage(ctx context.Context, prompt, negativePrompt, aspectRatio string) (*ImageResult, error) {
	return &ImageResult{B64: "aGVsbG8=", MimeType: "image/png", Model: "fake-image-model"}, nil
}

// fakeImageProvider counts calls and can fail on scripted call numbers.
type fakeImageProvider struct {
	calls    atomic.Int64
	failCall int64 // 1-based call number that errors; 0 disables
	failAll  bool
}

func (f *fakeImageProvider) Name() string  { return "fake" }
func (f *fakeImageProvider) Model() string { return "fake-image-model" }

func (f *fakeImageProvider) GenerateImage(ctx context.Context, prompt, negativePrompt, aspectRatio string) (*ImageResult, error) {
	n := f.calls.Add(1)
	if f.failAll || (f.failCall > 0 && n == f.failCall) {
		return nil, fmt.Errorf("provider unavailable")
	}
	return &ImageResult{
		B64:      "aGVsbG8=",
		MimeType: "image/png",
		Model:    "fake-image-model",
	}, nil
}

type fakeBucket struct {
	uploads atomic.Int64
}

func (f *fakeBucket) UploadBase64(ctx context.Context, key, b64, mimeType string) (string, error) {
	f.uploads.Add(1)
	return "https://cdn.test/" + key, nil
}

func (f *fakeBucket) UploadFromURL(ctx context.Context, key, srcURL string) (string, error) {
	f.uploads.Add(1)
	return "https://cdn.test/" + key, nil
}

func (f *fakeBucket) PublicURL(key string) string { return "https://cdn.test/" + key }

// fakeQualityChecker returns a fixed verdict so pack tests control scoring.
type fakeQualityChecker struct {
	verdict QualityCheckResult
}

func (f *fakeQualityChecker) CheckImageQuality(ctx context.Context, imageURL string, brand *types.BrandMemory, adCopy ConfirmedCopy, aspectRatio string) *QualityCheckResult {
	v := f.verdict
	return &v
}

func (f *fakeQualityChecker) CalculatePackScores(assets []*types.CreativeAsset) PackScores {
	return (&qualityCheckerService{}).CalculatePackScores(assets)
}

func testBrandMemory() *types.BrandMemory {
	return &types.BrandMemory{
		BrandName:     "Acme Coffee",
		Tagline:       "Wake up better",
		Version:       1,
		IsActive:      true,
		LayoutStyle:   types.LayoutStyleModern,
		LogoPlacement: types.LogoPlacementBottomRight,
	}
}

func testConfirmedCopy() ConfirmedCopy {
	return ConfirmedCopy{
		Headline:    "Morning, Upgraded",
		PrimaryText: "Small-batch beans delivered weekly.",
		CTAText:     "Shop Now",
	}
}
