package service

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sketch-eval-api/internal/models"
)

type publisherStub struct {
	name  string
	image []byte
	url   string
	err   error
}

func (p *publisherStub) Publish(_ context.Context, name string, image []byte) (string, error) {
	p.name = name
	p.image = image
	return p.url, p.err
}

func TestRenderServiceRendersPNG(t *testing.T) {
	svc := NewRenderService(&stubLoader{table: fixtureTable()}, nil, RenderDefaults{ImageSize: 64, LineWidth: 2}, testLogger())

	data, err := svc.Render(context.Background(), testKey, 1, 0, 0)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 64, img.Bounds().Dx())
	require.Equal(t, 64, img.Bounds().Dy())

	r, _, _, _ := img.At(10, 10).RGBA()
	require.Zero(t, r)
	r, _, _, _ = img.At(50, 5).RGBA()
	require.Equal(t, uint32(0xffff), r)
}

func TestRenderServiceHonoursRequestedSize(t *testing.T) {
	svc := NewRenderService(&stubLoader{table: fixtureTable()}, nil, RenderDefaults{}, testLogger())

	data, err := svc.Render(context.Background(), testKey, 0, 32, 1)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 32, img.Bounds().Dx())
}

func TestRenderServiceErrors(t *testing.T) {
	svc := NewRenderService(&stubLoader{table: fixtureTable()}, nil, RenderDefaults{}, testLogger())

	_, err := svc.Render(context.Background(), testKey, 3, 0, 0)
	require.ErrorIs(t, err, ErrRenderUnavailable)

	_, err = svc.Render(context.Background(), testKey, 4, 0, 0)
	require.ErrorIs(t, err, models.ErrMalformedDrawing)

	_, err = svc.Render(context.Background(), testKey, 99, 0, 0)
	require.ErrorIs(t, err, models.ErrRecordNotFound)
}

func TestRenderServicePublish(t *testing.T) {
	publisher := &publisherStub{url: "https://res.cloudinary.com/demo/image/upload/drawing.png"}
	svc := NewRenderService(&stubLoader{table: fixtureTable()}, publisher, RenderDefaults{ImageSize: 64, LineWidth: 3}, testLogger())

	resp, err := svc.Publish(context.Background(), testKey, 1, 0, 0)
	require.NoError(t, err)
	require.Equal(t, publisher.url, resp.URL)
	require.Equal(t, 1, resp.Index)
	require.Equal(t, "baseline_stroke_v9_step200_1_64x3", publisher.name)
	require.NotEmpty(t, publisher.image)
}

func TestRenderServicePublishDisabled(t *testing.T) {
	svc := NewRenderService(&stubLoader{table: fixtureTable()}, nil, RenderDefaults{}, testLogger())

	_, err := svc.Publish(context.Background(), testKey, 1, 0, 0)
	require.ErrorIs(t, err, ErrPublishingDisabled)
}

func TestRenderServicePublishFailure(t *testing.T) {
	publisher := &publisherStub{err: errors.New("upload failed")}
	svc := NewRenderService(&stubLoader{table: fixtureTable()}, publisher, RenderDefaults{}, testLogger())

	_, err := svc.Publish(context.Background(), testKey, 1, 0, 0)
	require.EqualError(t, err, "upload failed")

	_, err = svc.Publish(context.Background(), testKey, 3, 0, 0)
	require.ErrorIs(t, err, ErrRenderUnavailable)
}
