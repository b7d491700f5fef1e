package config

const (
	// MaxEpisodeTitleLength fits the VARCHAR(255) title column.
	MaxEpisodeTitleLength = 255

	// MaxCardTitleLength bounds reference card titles. Cards are meant to
	// carry 1-3 word titles; anything longer is a malformed generation.
	MaxCardTitleLength = 120

	// MaxCardGroupLength bounds the free-text group label on a card.
	MaxCardGroupLength = 64

	// MaxParagraphsPerEpisode caps a single full-document save.
	MaxParagraphsPerEpisode = 2000

	// MaxDocumentFilenameLength fits the VARCHAR(255) filename column.
	MaxDocumentFilenameLength = 255

	// GeneratedCardBatchSize is how many cards a RequestCards call asks for.
	GeneratedCardBatchSize = 6

	// DiscoveryCandidateCount is how many new candidates a discovery triage
	// session generates next to the current card.
	DiscoveryCandidateCount = 3

	// NewEpisodeParagraphCount is the number of blank paragraphs a new
	// episode starts with when the request supplies none.
	NewEpisodeParagraphCount = 5

	// MaxSearchQueryLength truncates paragraph text used as a search query.
	MaxSearchQueryLength = 200
)
