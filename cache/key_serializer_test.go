package cache

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type listQuery struct {
	Search   string  `json:"search,omitempty"`
	Status   *string `json:"status,omitempty"`
	IsPastor *bool   `json:"isPastor,omitempty"`
	Page     int     `json:"page"`
	Limit    int     `json:"limit"`
	internal string
}

func TestDefaultKeySerializer_BasicTypes(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name      string
		namespace string
		args      []any
		want      string
	}{
		{"no args", "guests:stats", nil, "guests:stats"},
		{"single int", "guests:detail", []any{42}, "guests:detail:42"},
		{"multiple basic types", "ns", []any{1, "hello", true, 3.14}, `ns:1:"hello":true:3.14`},
		{"nil", "ns", []any{nil}, "ns:nil"},
		{"slice", "ns", []any{[]int64{3, 1}}, "ns:[3,1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serializer.SerializeKey(tt.namespace, tt.args...))
		})
	}
}

func TestDefaultKeySerializer_StructsSkipZeroFields(t *testing.T) {
	serializer := NewDefaultKeySerializer()
	status := "CONFIRMED"
	pastor := false

	got := serializer.SerializeKey("guests:list", listQuery{Status: &status, IsPastor: &pastor, Page: 1, Limit: 20, internal: "x"})
	assert.Equal(t, `guests:list:{status="CONFIRMED",isPastor=false,page=1,limit=20}`, got)

	assert.Equal(t,
		serializer.SerializeKey("guests:list", listQuery{Page: 1, Limit: 20}),
		serializer.SerializeKey("guests:list", &listQuery{Page: 1, Limit: 20}),
	)
}

func TestDefaultKeySerializer_MapsAreSorted(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	a := serializer.SerializeKey("ns", url.Values{"page": {"1"}, "limit": {"20"}})
	b := serializer.SerializeKey("ns", url.Values{"limit": {"20"}, "page": {"1"}})
	assert.Equal(t, a, b)
	assert.Equal(t, `ns:{"limit"=["20"],"page"=["1"]}`, a)
}

func TestDefaultKeySerializer_HashesLongKeys(t *testing.T) {
	serializer := NewKeySerializer(32)
	long := listQuery{Search: strings.Repeat("x", 100), Page: 1, Limit: 20}

	key := serializer.SerializeKey("guests:list", long)
	assert.True(t, strings.HasPrefix(key, "guests:list:h:"), key)
	assert.Less(t, len(key), 40)
	assert.Equal(t, key, serializer.SerializeKey("guests:list", long))

	other := long
	other.Page = 2
	assert.NotEqual(t, key, serializer.SerializeKey("guests:list", other))

	unbounded := NewKeySerializer(0)
	assert.Contains(t, unbounded.SerializeKey("guests:list", long), strings.Repeat("x", 100))
}

func TestDefaultKeySerializer_SeparatorsInStringsDoNotCollide(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	type filter struct {
		Search string `json:"search,omitempty"`
		City   string `json:"city,omitempty"`
	}

	tests := []struct {
		name string
		a, b any
	}{
		{"struct fields", filter{Search: "an", City: "Paris"}, filter{Search: "an,city=Paris"}},
		{"closing brace", filter{Search: "an}"}, filter{Search: "an", City: "}"}},
		{"quotes", filter{Search: `a"b`}, filter{Search: `a\"b`}},
		{"list items", []string{"a", "b"}, []string{"a,b"}},
		{"map values", map[string]string{"q": "a,r=b"}, map[string]string{"q": "a", "r": "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t,
				serializer.SerializeKey("guests:list", tt.a),
				serializer.SerializeKey("guests:list", tt.b),
			)
		})
	}

	assert.NotEqual(t,
		serializer.SerializeKey("ns", "a:b"),
		serializer.SerializeKey("ns", "a", "b"),
	)
}

func TestKeys_Layout(t *testing.T) {
	keys := NewKeys("guests", nil)

	assert.Equal(t, "guests:detail:5", keys.Detail(5))
	assert.Equal(t, "guests:stats", keys.Stats())
	assert.Equal(t, "guests:history:2:20", keys.History(2, 20))
	assert.Equal(t, "guests:history:5:1:10", keys.GuestHistory(5, 1, 10))
	assert.Equal(t, "guests:list:{page=1,limit=20}", keys.List(listQuery{Page: 1, Limit: 20}))
	assert.Equal(t, "guests:*", keys.All())
	assert.Equal(t, "guests:list:*", keys.Namespace(NamespaceList))
}
