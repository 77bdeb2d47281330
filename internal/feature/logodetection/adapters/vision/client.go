// Package vision はGoogle Cloud Vision APIを使用したロゴ検出クライアントを提供します。
package vision

import (
	"context"
	"fmt"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"logoscan/internal/feature/logodetection/domain"
	"logoscan/internal/feature/logodetection/domain/entity"
	"logoscan/internal/feature/logodetection/usecase"
)

// DefaultMaxResults は1画像あたりに返すロゴの最大件数です。
const DefaultMaxResults = 10

// imageAnnotator はgvision.ImageAnnotatorClientのうち本パッケージが利用するメソッドです。
// ユニットテストでモックに差し替えるために定義しています。
type imageAnnotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// VisionLogoDetector はGoogle Cloud Vision APIを使用してロゴを検出します。
type VisionLogoDetector struct {
	client     imageAnnotator
	maxResults int32
}

// VisionLogoDetectorがLogoDetectorを実装していることをコンパイル時に検証します。
var _ usecase.LogoDetector = (*VisionLogoDetector)(nil)

// NewVisionLogoDetector はADCを使用してVisionLogoDetectorの新しいインスタンスを生成します。
// maxResultsが0以下の場合は DefaultMaxResults を使用します。
func NewVisionLogoDetector(ctx context.Context, maxResults int) (*VisionLogoDetector, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return newVisionLogoDetector(client, maxResults), nil
}

func newVisionLogoDetector(client imageAnnotator, maxResults int) *VisionLogoDetector {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &VisionLogoDetector{client: client, maxResults: int32(maxResults)}
}

// Close はVision APIクライアントを解放します。
func (v *VisionLogoDetector) Close() error {
	return v.client.Close()
}

// DetectLogos は画像からロゴを検出します。
// 画像が参照できない場合（gRPC NotFound）は domain.ErrImageNotFound をラップして返します。
func (v *VisionLogoDetector) DetectLogos(ctx context.Context, img entity.Image) ([]entity.LogoAnnotation, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: toProtoImage(img),
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_LOGO_DETECTION, MaxResults: v.maxResults},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrImageNotFound, status.Convert(err).Message())
		}
		return nil, fmt.Errorf("vision API request failed: %w", err)
	}

	if len(resp.GetResponses()) == 0 {
		return nil, nil
	}

	res := resp.GetResponses()[0]
	if e := res.GetError(); e != nil {
		if codes.Code(e.GetCode()) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrImageNotFound, e.GetMessage())
		}
		return nil, fmt.Errorf("vision API error: %s", e.GetMessage())
	}

	logos := make([]entity.LogoAnnotation, 0, len(res.GetLogoAnnotations()))
	for _, logo := range res.GetLogoAnnotations() {
		logos = append(logos, toAnnotation(logo))
	}

	return logos, nil
}

func toProtoImage(img entity.Image) *visionpb.Image {
	if img.IsRemote() {
		return &visionpb.Image{Source: &visionpb.ImageSource{ImageUri: img.URI}}
	}
	return &visionpb.Image{Content: img.Content}
}

// toAnnotation はEntityAnnotationをドメインモデルに変換します。
// proto3ではスコア0と未設定を区別できないため、0は未設定として扱います。
func toAnnotation(logo *visionpb.EntityAnnotation) entity.LogoAnnotation {
	a := entity.LogoAnnotation{Description: logo.GetDescription()}
	if s := logo.GetScore(); s != 0 {
		a.Score = entity.Float64(float64(s))
	}
	return a
}
