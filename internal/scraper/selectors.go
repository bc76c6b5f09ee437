package scraper

// results list
const (
	resultsURLMarker = "applied-jobs"
	jobItemPrefix    = "job-item-"
)

var (
	jobItem    = CSS("[data-automation^='job-item-']")
	nextPage   = CSS("a[aria-label='Next']")
	prevPage   = CSS("a[aria-label='Previous']")
	cardHeader = CSS("h4 span[role='button']")
)

// authentication
var (
	emailField = CSS("#emailAddress")
	otpField   = CSS("input[aria-label='verification input']")
	otpAlert   = CSS("[aria-live='polite']")
)

const invalidCodeMarker = "invalid code"

// detail panel
var (
	detailPanel = CSS("[role='dialog']")
	closeButton = CSS("[aria-label='Close']")

	coreAnchor  = XPath(".//span[contains(text(), 'Lamaran untuk')]")
	nextH3      = XPath("./following-sibling::h3[1]")
	nextSpan    = XPath("./following-sibling::span[1]")
	nextSpanURL = XPath("./following-sibling::span[1]/a")
	anyLink     = XPath(".//a")

	statusAnchor  = XPath(".//span[contains(text(), 'Status lamaran')]")
	nextDiv       = XPath("./following-sibling::div[1]")
	statusBlocks  = XPath("./div/div")
	statusWrapper = XPath("./div/div[2]/div")
	spans         = XPath(".//span")
	expiredMarker = XPath(".//following-sibling::div//span[contains(text(), 'Lowongan kerja ini telah kedaluwarsa')]")

	resumeName      = CSS("span[data-automation='job-item-resume']")
	coverLetterName = CSS("span[data-automation='job-item-cover-letter']")
	applicantsLine  = XPath(".//span[contains(text(), 'kandidat melamar untuk posisi ini')]")
)

// job page opened in a secondary tab
var (
	classificationLink = CSS("span[data-automation='job-detail-classifications'] a")
	workTypeLink       = CSS("span[data-automation='job-detail-work-type'] a")
	postedLine         = XPath("//span[contains(text(), 'Posted')]")
)

// markers used by the plain text fallbacks
const (
	coreMarker       = "Lamaran untuk"
	statusMarker     = "Status lamaran"
	documentsMarker  = "Dokumen terkirim"
	compareMarker    = "Perbandingan dengan kamu"
	noCoverLetter    = "tidak ada surat lamaran"
	salaryMarker     = "per month"
	salaryTextMarker = "Rp"
)
