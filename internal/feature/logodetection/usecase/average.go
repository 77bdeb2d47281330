package usecase

import "logoscan/internal/feature/logodetection/domain/entity"

// AverageScore はスコアが設定されているアノテーションの平均スコアを返します。
// スコアが1件もない場合は0を返します（ゼロ除算はしません）。
func AverageScore(logos []entity.LogoAnnotation) float64 {
	var (
		sum   float64
		count int
	)
	for _, l := range logos {
		if l.Score == nil {
			continue
		}
		sum += *l.Score
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
