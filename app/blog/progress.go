package blog

// Progress observes scraping progress. Sources report it as they page
// through an archive; the caller decides how to present it. Implementations
// must tolerate a zero total (platforms that do not declare one).
type Progress interface {
	Start(label string, total int)
	Add(n int)
	Done()
}

// NopProgress discards all progress events.
type NopProgress struct{}

func (NopProgress) Start(string, int) {}
func (NopProgress) Add(int)           {}
func (NopProgress) Done()             {}
