package mock

import "github.com/fwojciec/bggcrawl"

var _ bggcrawl.ResponseParser = (*ResponseParser)(nil)

// ResponseParser is a mock implementation of bggcrawl.ResponseParser.
type ResponseParser struct {
	ParseThingsFn     func(body []byte) (*bggcrawl.ThingResponse, error)
	ParseCollectionFn func(body []byte) (*bggcrawl.CollectionResponse, error)
	ParseUserFn       func(body []byte) (*bggcrawl.User, error)
}

func (p *ResponseParser) ParseThings(body []byte) (*bggcrawl.ThingResponse, error) {
	return p.ParseThingsFn(body)
}

func (p *ResponseParser) ParseCollection(body []byte) (*bggcrawl.CollectionResponse, error) {
	return p.ParseCollectionFn(body)
}

func (p *ResponseParser) ParseUser(body []byte) (*bggcrawl.User, error) {
	return p.ParseUserFn(body)
}
