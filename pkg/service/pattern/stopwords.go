package pattern

// stopWords only needs entries of MinWordLength or more characters; shorter
// tokens are dropped before the lookup.
var stopWords = map[string]struct{}{
	"about": {}, "above": {}, "after": {}, "again": {}, "against": {},
	"also": {}, "because": {}, "been": {}, "before": {}, "being": {},
	"below": {}, "between": {}, "both": {}, "cannot": {}, "could": {},
	"does": {}, "doing": {}, "down": {}, "during": {}, "each": {},
	"even": {}, "ever": {}, "every": {}, "from": {}, "further": {},
	"have": {}, "having": {}, "here": {}, "hers": {}, "herself": {},
	"himself": {}, "into": {}, "itself": {}, "just": {}, "like": {},
	"made": {}, "make": {}, "many": {}, "more": {}, "most": {},
	"much": {}, "must": {}, "myself": {}, "never": {}, "none": {},
	"only": {}, "other": {}, "ours": {}, "ourselves": {}, "over": {},
	"really": {}, "same": {}, "shall": {}, "should": {}, "some": {},
	"still": {}, "such": {}, "than": {}, "that": {}, "their": {},
	"theirs": {}, "them": {}, "themselves": {}, "then": {}, "there": {},
	"these": {}, "they": {}, "thing": {}, "things": {}, "this": {},
	"those": {}, "through": {}, "under": {}, "until": {}, "upon": {},
	"very": {}, "want": {}, "wants": {}, "were": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "while": {}, "whom": {},
	"will": {}, "with": {}, "within": {}, "without": {}, "would": {},
	"your": {}, "yours": {}, "yourself": {}, "yourselves": {},
}
