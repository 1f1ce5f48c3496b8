package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docintake/docintake-backend/internal/docextract/domain"
	"github.com/docintake/docintake-backend/internal/docextract/processor"
	"github.com/docintake/docintake-backend/pkg/logger"
	"github.com/docintake/docintake-backend/pkg/testutil"
)

// fakeBackend returns canned text or an error
type fakeBackend struct {
	name  string
	kinds []domain.DocumentKind
	text  string
	err   error
	calls int32
	ctxOK bool
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Supports(kind domain.DocumentKind) bool {
	for _, k := range f.kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (f *fakeBackend) Recognize(ctx context.Context, _ []byte, _ domain.DocumentKind) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	f.ctxOK = ctx.Err() == nil
	return f.text, f.err
}

func cloudFake(text string, err error) *fakeBackend {
	return &fakeBackend{name: processor.BackendCloud, kinds: []domain.DocumentKind{domain.KindImage, domain.KindPDF}, text: text, err: err}
}

func localFake(text string, err error) *fakeBackend {
	return &fakeBackend{name: processor.BackendLocal, kinds: []domain.DocumentKind{domain.KindImage}, text: text, err: err}
}

func imageRequest() domain.ExtractionRequest {
	return domain.ExtractionRequest{
		Data:     testutil.PNGImage(4, 4),
		Kind:     domain.KindImage,
		UserID:   "user-1",
		FileName: "card.png",
	}
}

func newOrchestrator(backends ...processor.Backend) *Orchestrator {
	return NewOrchestrator(processor.NewRegistry(backends...), logger.Nop())
}

func TestOrchestrator_FallsBackWhenCloudIsEmpty(t *testing.T) {
	cloud := cloudFake("", nil)
	local := localFake("CARTE DE IDENTITATE\nCNP 1850101123456\n", nil)

	outcome := newOrchestrator(cloud, local).Extract(testContext(t), imageRequest())

	assert.Equal(t, processor.BackendLocal, outcome.Backend)
	assert.True(t, outcome.FallbackOccurred)
	require.NotNil(t, outcome.Record.PersonalCode)
	assert.Equal(t, "1850101123456", *outcome.Record.PersonalCode)
	assert.Equal(t, local.text, outcome.RawText)

	require.Len(t, outcome.Attempts, 2)
	assert.True(t, outcome.Attempts[0].Success)
	assert.ErrorIs(t, outcome.Attempts[0].Err, domain.ErrNoMeaningfulData)
	assert.NoError(t, outcome.Attempts[1].Err)
}

func TestOrchestrator_FirstMeaningfulBackendWins(t *testing.T) {
	cloud := cloudFake(testutil.SampleIdentityCardText, nil)
	local := localFake("CNP 2900101123456", nil)

	outcome := newOrchestrator(cloud, local).Extract(testContext(t), imageRequest())

	assert.Equal(t, processor.BackendCloud, outcome.Backend)
	assert.False(t, outcome.FallbackOccurred)
	assert.Zero(t, atomic.LoadInt32(&local.calls))
	assert.Equal(t, "1850101123456", *outcome.Record.PersonalCode)
	assert.Len(t, outcome.Attempts, 1)
}

func TestOrchestrator_AllBackendsFail(t *testing.T) {
	cloud := cloudFake("", domain.NewBackendError(processor.BackendCloud, domain.ErrBackendTimeout, nil))
	local := localFake("", domain.NewBackendError(processor.BackendLocal, domain.ErrBackendRequestFailed, errors.New("exit 1")))

	outcome := newOrchestrator(cloud, local).Extract(testContext(t), imageRequest())

	require.NotNil(t, outcome)
	assert.True(t, outcome.Record.IsEmpty())
	assert.Empty(t, outcome.Backend)
	assert.False(t, outcome.Succeeded())
	assert.True(t, outcome.FallbackOccurred)
	assert.Empty(t, outcome.RawText)
	require.Len(t, outcome.Attempts, 2)
	assert.ErrorIs(t, outcome.Attempts[0].Err, domain.ErrBackendTimeout)
	assert.ErrorIs(t, outcome.Attempts[1].Err, domain.ErrBackendRequestFailed)
}

func TestOrchestrator_KeepsLastNonEmptyText(t *testing.T) {
	cloud := cloudFake("illegible scan\n~~~", nil)
	local := localFake("   ", nil)

	outcome := newOrchestrator(cloud, local).Extract(testContext(t), imageRequest())

	assert.True(t, outcome.Record.IsEmpty())
	assert.Equal(t, "illegible scan\n~~~", outcome.RawText)
}

func TestOrchestrator_PDFWithoutCloud(t *testing.T) {
	local := localFake(testutil.SampleIdentityCardText, nil)
	req := imageRequest()
	req.Kind = domain.KindPDF
	req.Data = testutil.MinimalPDF(1)

	outcome := newOrchestrator(local).Extract(testContext(t), req)

	assert.True(t, outcome.Record.IsEmpty())
	assert.Empty(t, outcome.Backend)
	assert.False(t, outcome.FallbackOccurred)
	assert.Empty(t, outcome.Attempts)
	assert.Zero(t, atomic.LoadInt32(&local.calls), "local engine never sees pdfs")
}

func TestOrchestrator_PDFUsesCloudOnly(t *testing.T) {
	cloud := cloudFake("", nil)
	local := localFake(testutil.SampleIdentityCardText, nil)
	req := imageRequest()
	req.Kind = domain.KindPDF
	req.Data = testutil.MinimalPDF(2)

	outcome := newOrchestrator(cloud, local).Extract(testContext(t), req)

	assert.True(t, outcome.Record.IsEmpty())
	assert.False(t, outcome.FallbackOccurred)
	assert.Equal(t, 2, outcome.PageCount)
	assert.Zero(t, atomic.LoadInt32(&local.calls))
}

func TestOrchestrator_IgnoresRequestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()
	cloud := cloudFake(testutil.SampleIdentityCardText, nil)

	outcome := newOrchestrator(cloud).Extract(ctx, imageRequest())

	assert.True(t, cloud.ctxOK)
	assert.True(t, outcome.Succeeded())
}

func TestOrchestrator_DoesNotModifyRequestData(t *testing.T) {
	req := imageRequest()
	original := append([]byte(nil), req.Data...)

	newOrchestrator(cloudFake("", nil), localFake("", nil)).Extract(testContext(t), req)

	assert.Equal(t, original, req.Data)
}
