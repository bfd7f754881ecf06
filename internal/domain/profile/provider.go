package profile

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
)

// Provider identifies the identity source that issued a profile payload.
type Provider string

const (
	Facebook Provider = "facebook"
	Twitter  Provider = "twitter"
	GitHub   Provider = "github"
	GitLab   Provider = "gitlab"
	Dropbox  Provider = "dropbox"
	Google   Provider = "google"
	LDAP     Provider = "ldap"
)

// Providers lists every provider with an avatar rule.
var Providers = []Provider{Facebook, Twitter, GitHub, GitLab, Dropbox, Google, LDAP}

// Supported reports whether p has an avatar rule.
func (p Provider) Supported() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

// Size selects the small or the large avatar variant.
type Size int

const (
	Small Size = iota
	Big
)

// Pixels is the edge length requested from size-aware avatar services.
func (s Size) Pixels() int {
	if s == Big {
		return 400
	}
	return 96
}

// avatarSource is implemented by one payload shape per provider.
type avatarSource interface {
	avatar(size Size, r *Resolver) string
}

// newSource returns the empty payload shape for p. Unknown providers get
// unsupportedProfile, whose avatar is always empty.
func newSource(p Provider) avatarSource {
	switch p {
	case Facebook:
		return &facebookProfile{}
	case Twitter:
		return &twitterProfile{}
	case GitHub:
		return &githubProfile{}
	case GitLab:
		return &gitlabProfile{}
	case Dropbox:
		return &dropboxProfile{}
	case Google:
		return &googleProfile{}
	case LDAP:
		return &ldapProfile{}
	default:
		return &unsupportedProfile{}
	}
}

type facebookProfile struct {
	ID flexString `json:"id"`
}

func (p *facebookProfile) avatar(size Size, _ *Resolver) string {
	if p.ID == "" {
		return ""
	}
	return "https://graph.facebook.com/" + string(p.ID) + "/picture?width=" + strconv.Itoa(size.Pixels())
}

type twitterProfile struct {
	Username flexString `json:"username"`
}

func (p *twitterProfile) avatar(size Size, _ *Resolver) string {
	if p.Username == "" {
		return ""
	}
	variant := "bigger"
	if size == Big {
		variant = "original"
	}
	return "https://twitter.com/" + string(p.Username) + "/profile_image?size=" + variant
}

type githubProfile struct {
	ID flexString `json:"id"`
}

func (p *githubProfile) avatar(size Size, _ *Resolver) string {
	if p.ID == "" {
		return ""
	}
	return "https://avatars.githubusercontent.com/u/" + string(p.ID) + "?s=" + strconv.Itoa(size.Pixels())
}

type gitlabProfile struct {
	AvatarURL flexString `json:"avatarUrl"`
}

func (p *gitlabProfile) avatar(size Size, _ *Resolver) string {
	return rewriteSize(sParam, string(p.AvatarURL), size)
}

// Dropbox has no image API; the first account email keys a gravatar.
type dropboxProfile struct {
	Emails valueList `json:"emails"`
}

func (p *dropboxProfile) avatar(size Size, r *Resolver) string {
	email := p.Emails.first()
	if email == "" {
		return ""
	}
	return r.gravatar(email, size)
}

type googleProfile struct {
	Photos valueList `json:"photos"`
}

func (p *googleProfile) avatar(size Size, _ *Resolver) string {
	return rewriteSize(szParam, p.Photos.first(), size)
}

// LDAP directories carry no photo: gravatar when an email exists,
// otherwise a generated letter avatar for the username.
type ldapProfile struct {
	Username flexString `json:"username"`
	Emails   valueList  `json:"emails"`
}

func (p *ldapProfile) avatar(size Size, r *Resolver) string {
	if email := p.Emails.first(); email != "" {
		return r.gravatar(email, size)
	}
	if r.letterAvatar == nil {
		return ""
	}
	return r.letterAvatar(string(p.Username))
}

type unsupportedProfile struct{}

func (unsupportedProfile) avatar(Size, *Resolver) string { return "" }

// The size rewrite only touches a trailing "?s=" / "?sz=" value. URLs without
// it are returned unchanged.
var (
	sParam  = regexp.MustCompile(`(?i)(\?s=)\d*$`)
	szParam = regexp.MustCompile(`(?i)(\?sz=)\d*$`)
)

func rewriteSize(re *regexp.Regexp, url string, size Size) string {
	if url == "" {
		return ""
	}
	return re.ReplaceAllString(url, "${1}"+strconv.Itoa(size.Pixels()))
}

// flexString accepts both JSON strings and numbers; provider ids come as either.
// Any other shape decodes to the empty string.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch x := v.(type) {
	case string:
		*s = flexString(x)
	case json.Number:
		*s = flexString(x.String())
	default:
		*s = ""
	}
	return nil
}

// valueList decodes the list shapes providers use for emails and photos:
// either plain strings or objects carrying a "value" field. Entries of any
// other shape keep their position as an empty string; a non-list decodes
// to an empty list.
type valueList []string

func (l *valueList) UnmarshalJSON(b []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		*l = nil
		return nil
	}
	out := make(valueList, 0, len(items))
	for _, item := range items {
		out = append(out, entryValue(item))
	}
	*l = out
	return nil
}

func entryValue(item json.RawMessage) string {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s
	}
	var obj struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(item, &obj); err != nil {
		return ""
	}
	if err := json.Unmarshal(obj.Value, &s); err != nil {
		return ""
	}
	return s
}

func (l valueList) first() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}
