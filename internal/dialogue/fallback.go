package dialogue

import "math/rand/v2"

// DegradedResponseID marks AI turns produced without a backend, so they
// are distinguishable from real completions when history is replayed.
const DegradedResponseID = "degraded"

// Canned Socratic-style replies served when no backend is configured or
// generation fails. The pools are fixed; picks are uniform.
var fallbackPools = map[string][]string{
	"ko": {
		"흥미로운 관점이네요. 왜 그렇게 생각하시나요? 구체적인 근거가 있나요?",
		"좋은 의견입니다. 반대 입장에서 생각해보면 어떤 반론이 있을 수 있을까요?",
		"그 주장을 뒷받침하는 구체적인 사례나 데이터가 있나요?",
		"만약 그 전제가 틀리다면, 결론은 어떻게 달라질까요?",
		"다른 사람의 관점에서 이 문제를 바라보면 어떤 점이 다르게 보일까요?",
	},
	"en": {
		"That's an interesting perspective. Why do you think so? Do you have concrete evidence?",
		"Good point. If you consider the opposite position, what counterarguments might there be?",
		"Are there specific examples or data that support that claim?",
		"If that premise turned out to be wrong, how would the conclusion change?",
		"How might this issue look different from someone else's point of view?",
	},
}

// FallbackResponse picks a canned reply for the locale. Unknown locales
// get the Korean pool.
func FallbackResponse(locale string) string {
	pool, ok := fallbackPools[locale]
	if !ok {
		pool = fallbackPools["ko"]
	}
	return pool[rand.IntN(len(pool))]
}
