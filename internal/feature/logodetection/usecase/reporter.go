package usecase

// MultiReporter は複数のReporterへ同じ通知を順に配信します。
type MultiReporter []Reporter

var _ Reporter = MultiReporter(nil)

func (m MultiReporter) Started(path string, mode Mode) {
	for _, r := range m {
		r.Started(path, mode)
	}
}

func (m MultiReporter) LogoFound(path, description string) {
	for _, r := range m {
		r.LogoFound(path, description)
	}
}

func (m MultiReporter) AverageScore(path string, average float64) {
	for _, r := range m {
		r.AverageScore(path, average)
	}
}

func (m MultiReporter) NotFound(path string) {
	for _, r := range m {
		r.NotFound(path)
	}
}

func (m MultiReporter) Failed(path string, err error) {
	for _, r := range m {
		r.Failed(path, err)
	}
}
