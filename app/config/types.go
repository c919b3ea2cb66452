package config

// BlogList is the scrape-all input file: the set of blogs to archive.
type BlogList struct {
	Blogs []Blog `yaml:"blogs"`
}

// Blog is a single blog to scrape.
type Blog struct {
	URL string `yaml:"url"`
}
