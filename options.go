package restdb

import "strconv"

// tokenParam is the query parameter carrying the client token.
const tokenParam = "token"

// Options are per-request settings shared by all operations.
type Options struct {
	// SkipToken leaves the client token out of the query string.
	// By default the token is sent whenever one is set.
	SkipToken bool
	// Params are extra query parameters, forwarded verbatim after
	// structural encoding. A "token" entry is replaced by the client token
	// unless SkipToken is set.
	Params map[string]any
}

func (o *Options) includeToken() bool {
	return o == nil || !o.SkipToken
}

func (o *Options) params() map[string]any {
	if o == nil {
		return nil
	}
	return o.Params
}

// RangeOptions describe a key range for GetRange and GetCount.
type RangeOptions struct {
	// Start is the first key of the range, inclusive.
	Start Key
	// StartAfter is the first key of the range, exclusive.
	StartAfter Key
	// End is the last key of the range, inclusive.
	End Key
	// EndBefore is the last key of the range, exclusive.
	EndBefore Key
	// Limit caps the number of returned items. Zero means no limit.
	Limit int
	// Reverse walks the range from the end.
	Reverse bool
}

// Options flattens r into request options, keeping any params already in base.
func (r *RangeOptions) Options(base *Options) *Options {
	opts := &Options{Params: map[string]any{}}
	if base != nil {
		opts.SkipToken = base.SkipToken
		for k, v := range base.Params {
			opts.Params[k] = v
		}
	}
	if r == nil {
		return opts
	}

	for name, k := range map[string]Key{
		"start":      r.Start,
		"startAfter": r.StartAfter,
		"end":        r.End,
		"endBefore":  r.EndBefore,
	} {
		if !k.IsZero() {
			opts.Params[name] = k
		}
	}
	if r.Limit > 0 {
		opts.Params["limit"] = strconv.Itoa(r.Limit)
	}
	if r.Reverse {
		opts.Params["reverse"] = "true"
	}
	return opts
}
