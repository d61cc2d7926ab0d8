package bggcrawl

// Poll names used by the thing endpoint.
const (
	PollPlayerCount        = "suggested_numplayers"
	PollPlayerAge          = "suggested_playerage"
	PollLanguageDependence = "language_dependence"
)

// ThingResponse is a parsed response of the thing endpoint.
type ThingResponse struct {
	Items []*ThingItem
}

// ThingItem is one <item> of a thing response.
// Game carries the directly mapped fields; poll summaries and external IDs
// are derived later.
type ThingItem struct {
	ID       EntityID
	Type     string
	Game     *Game
	Polls    map[string]*Poll
	Comments *CommentPage
}

// CommentPage is one page of an item's rating comments.
// Page and TotalItems are zero when the attributes are missing or unparseable.
type CommentPage struct {
	Page       int
	TotalItems int
	Comments   []Comment
}

// Comment is a single rating comment.
type Comment struct {
	UserName string
	Rating   float64
	Text     string
}

// PageSignals returns the pagination hints of every comment page in the
// response, in document order.
func (r *ThingResponse) PageSignals() []PageSignal {
	var signals []PageSignal
	for _, item := range r.Items {
		if item.Comments == nil {
			continue
		}
		signals = append(signals, PageSignal{
			Page:       item.Comments.Page,
			TotalItems: item.Comments.TotalItems,
		})
	}
	return signals
}

// CommentCount returns the number of comments across all items.
func (r *ThingResponse) CommentCount() int {
	var n int
	for _, item := range r.Items {
		if item.Comments != nil {
			n += len(item.Comments.Comments)
		}
	}
	return n
}

// PageSignal is the (page, total items) hint of one paginated sub-collection.
type PageSignal struct {
	Page       int
	TotalItems int
}

// CollectionResponse is a parsed response of the collection endpoint.
// Item user names are empty; the caller knows whose collection it asked for.
type CollectionResponse struct {
	Items []*CollectionItem
}

// ResponseParser turns raw API documents into domain values.
type ResponseParser interface {
	ParseThings(body []byte) (*ThingResponse, error)
	ParseCollection(body []byte) (*CollectionResponse, error)
	ParseUser(body []byte) (*User, error)
}
