package services

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"regexp"
	"strings"
)

// Pure text heuristics for the chat clarification engine. Everything here is
// a function of (text, language); no state, no I/O except the optional YAML
// template override loaded once at startup.

type clarifySignals struct {
	hasBudget          bool
	hasCategoryOrModel bool
	hasNeed            bool
	isOnlyAck          bool
	isAskingRecommend  bool
}

var vietnameseRunes = map[rune]rune{
	'à': 'a', 'á': 'a', 'ả': 'a', 'ã': 'a', 'ạ': 'a',
	'ă': 'a', 'ằ': 'a', 'ắ': 'a', 'ẳ': 'a', 'ẵ': 'a', 'ặ': 'a',
	'â': 'a', 'ầ': 'a', 'ấ': 'a', 'ẩ': 'a', 'ẫ': 'a', 'ậ': 'a',
	'è': 'e', 'é': 'e', 'ẻ': 'e', 'ẽ': 'e', 'ẹ': 'e',
	'ê': 'e', 'ề': 'e', 'ế': 'e', 'ể': 'e', 'ễ': 'e', 'ệ': 'e',
	'ì': 'i', 'í': 'i', 'ỉ': 'i', 'ĩ': 'i', 'ị': 'i',
	'ò': 'o', 'ó': 'o', 'ỏ': 'o', 'õ': 'o', 'ọ': 'o',
	'ô': 'o', 'ồ': 'o', 'ố': 'o', 'ổ': 'o', 'ỗ': 'o', 'ộ': 'o',
	'ơ': 'o', 'ờ': 'o', 'ớ': 'o', 'ở': 'o', 'ỡ': 'o', 'ợ': 'o',
	'ù': 'u', 'ú': 'u', 'ủ': 'u', 'ũ': 'u', 'ụ': 'u',
	'ư': 'u', 'ừ': 'u', 'ứ': 'u', 'ử': 'u', 'ữ': 'u', 'ự': 'u',
	'ỳ': 'y', 'ý': 'y', 'ỷ': 'y', 'ỹ': 'y', 'ỵ': 'y',
	'đ': 'd',
}

// normalizeText lowercases and folds Vietnamese diacritics so one regex set
// matches both accented and unaccented spellings.
func normalizeText(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	var sb strings.Builder
	sb.Grow(len(lowered))
	for _, r := range lowered {
		if mapped, ok := vietnameseRunes[r]; ok {
			sb.WriteRune(mapped)
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

var (
	budgetRe    = regexp.MustCompile(`\d+([.,]\d+)?\s*(d\b|k\b|tr\b|trieu|vnd|usd|\$)|\$\s*\d+|(duoi|khoang|tam|under|below|around|less than)\s+\$?\d+`)
	categoryRe  = regexp.MustCompile(`dien thoai|smartphone|phone\b|laptop|may tinh|tablet|may tinh bang|tai nghe|headphone|earbud|dong ho|watch|sac du phong|power ?bank|tivi|tv\b|man hinh roi|monitor`)
	modelRe     = regexp.MustCompile(`iphone\s?\d+|galaxy\s?[a-z]?\d+|xiaomi|redmi\s?\w*|oppo\s?\w*|pixel\s?\d+|macbook|thinkpad|ipad|airpods|\b[a-z]{1,3}\d{2,4}\b`)
	needRe      = regexp.MustCompile(`pin\b|pin trau|battery|camera|chup anh|quay phim|gaming|choi game|game\b|man hinh|display|ben\b|do ben|durab|sac nhanh|fast char|nho gon|compact|gon nhe`)
	recommendRe = regexp.MustCompile(`tu van|goi y|recommend|suggest|nen mua|nen chon|mua gi|chon gi|which (one|should)|advice|advise|help me (choose|pick)`)
	ackRe       = regexp.MustCompile(`^(ok|oke|okay|okie|yes|yep|yeah|u|uh|um|da|vang|dung|dung roi|duoc|dc|good|fine|thanks|thank you|cam on)[.!?\s]*$`)
)

// Intent hint rules, evaluated first-match-wins. Order is the priority:
// policy > compare > product_advice > other.
var intentRules = []struct {
	re     *regexp.Regexp
	intent string
}{
	{regexp.MustCompile(`bao hanh|doi tra|tra hang|hoan tien|chinh sach|giao hang|van chuyen|tra gop|warranty|return policy|refund|shipping|installment`), "policy"},
	{regexp.MustCompile(`so sanh|\bvs\b|hay hon|tot hon|khac nhau|nen lay .* hay|compare|versus|difference|better than|or should i`), "compare"},
	{regexp.MustCompile(`tu van|goi y|nen mua|nen chon|mua gi|chon gi|recommend|suggest|advice|advise|looking for|should i (buy|get)`), "product_advice"},
}

func extractSignals(text string) clarifySignals {
	norm := normalizeText(text)
	return clarifySignals{
		hasBudget:          budgetRe.MatchString(norm),
		hasCategoryOrModel: categoryRe.MatchString(norm) || modelRe.MatchString(norm),
		hasNeed:            needRe.MatchString(norm),
		isOnlyAck:          ackRe.MatchString(norm),
		isAskingRecommend:  recommendRe.MatchString(norm),
	}
}

func detectIntentHint(text string) string {
	norm := normalizeText(text)
	for _, rule := range intentRules {
		if rule.re.MatchString(norm) {
			return rule.intent
		}
	}
	return "other"
}

// isAmbiguous is a disjunction: any single rule makes the message ambiguous.
func isAmbiguous(text string, sig clarifySignals) bool {
	if sig.isOnlyAck {
		return true
	}
	if sig.isAskingRecommend && !sig.hasCategoryOrModel {
		return true
	}
	if sig.isAskingRecommend && sig.hasCategoryOrModel && !sig.hasBudget && !sig.hasNeed {
		return true
	}
	if len([]rune(strings.TrimSpace(text))) < 12 && !sig.hasBudget && !sig.hasCategoryOrModel && !sig.hasNeed {
		return true
	}
	return false
}

// detectLanguage prefers an explicit request language; otherwise Vietnamese
// diacritics or common Vietnamese words pick "vi", anything else "en".
func detectLanguage(text, explicit string) string {
	if explicit == "vi" || explicit == "en" {
		return explicit
	}
	lowered := strings.ToLower(text)
	for _, r := range lowered {
		if _, ok := vietnameseRunes[r]; ok {
			return "vi"
		}
	}
	norm := normalizeText(text)
	viWords := []string{"tu van", "dien thoai", "khong", "nhieu", "gia re", "bao nhieu", "giup", "minh ", "ban ", "cam on", "da ", "vang"}
	for _, w := range viWords {
		if strings.Contains(norm, w) {
			return "vi"
		}
	}
	return "en"
}

// ClarifyTemplates are the bilingual question/fallback texts. They ship with
// built-in defaults and may be overridden from a YAML file.
type ClarifyTemplates struct {
	Policy   map[string]string `yaml:"policy"`
	Compare  map[string]string `yaml:"compare"`
	Generic  map[string]string `yaml:"generic"`
	Fallback map[string]string `yaml:"fallback"`
	// Single targeted questions per missing fact.
	AskCategory map[string]string `yaml:"ask_category"`
	AskBudget   map[string]string `yaml:"ask_budget"`
	AskNeed     map[string]string `yaml:"ask_need"`
	// Combined two-part question: format string with two noun-phrase slots.
	Combined map[string]string `yaml:"combined"`
	// Noun phrases used to fill the combined format.
	PartCategory map[string]string `yaml:"part_category"`
	PartBudget   map[string]string `yaml:"part_budget"`
	PartNeed     map[string]string `yaml:"part_need"`
}

func defaultClarifyTemplates() ClarifyTemplates {
	return ClarifyTemplates{
		Policy: map[string]string{
			"vi": "Bạn muốn hỏi chính sách cho sản phẩm hoặc mẫu máy nào, và bạn mua online hay tại cửa hàng?",
			"en": "Which product or model is your question about, and did you buy online or in-store?",
		},
		Compare: map[string]string{
			"vi": "Bạn muốn so sánh 2-3 mẫu máy nào, và tiêu chí quan trọng nhất với bạn là gì (giá, pin, camera...)?",
			"en": "Which 2-3 models would you like to compare, and what matters most to you (price, battery, camera...)?",
		},
		Generic: map[string]string{
			"vi": "Bạn đang ưu tiên điều gì nhất: giá tốt, chơi game, chụp ảnh hay pin trâu?",
			"en": "What matters most to you: value, gaming, camera, or battery life?",
		},
		Fallback: map[string]string{
			"vi": "Xin lỗi, mình vẫn chưa đủ thông tin để tư vấn chính xác. Bạn vui lòng mô tả cụ thể sản phẩm quan tâm, ngân sách và nhu cầu sử dụng nhé.",
			"en": "Sorry, I still don't have enough information to give a useful recommendation. Please describe the product you're interested in, your budget, and how you plan to use it.",
		},
		AskCategory: map[string]string{
			"vi": "Bạn đang quan tâm đến loại sản phẩm hoặc mẫu máy nào?",
			"en": "Which type of product or which model are you interested in?",
		},
		AskBudget: map[string]string{
			"vi": "Ngân sách dự kiến của bạn khoảng bao nhiêu?",
			"en": "Roughly what is your budget?",
		},
		AskNeed: map[string]string{
			"vi": "Bạn ưu tiên điều gì nhất (pin, camera, chơi game, màn hình...)?",
			"en": "What do you care about most (battery, camera, gaming, display...)?",
		},
		Combined: map[string]string{
			"vi": "Để tư vấn chính xác hơn, bạn cho mình biết %s và %s nhé?",
			"en": "To narrow things down, could you tell me %s and %s?",
		},
		PartCategory: map[string]string{
			"vi": "loại sản phẩm hoặc mẫu máy bạn quan tâm",
			"en": "the product type or model you have in mind",
		},
		PartBudget: map[string]string{
			"vi": "ngân sách dự kiến",
			"en": "your budget",
		},
		PartNeed: map[string]string{
			"vi": "tiêu chí bạn ưu tiên (pin, camera, chơi game...)",
			"en": "what you care about most (battery, camera, gaming...)",
		},
	}
}

// LoadClarifyTemplates returns the defaults, overlaid with any fields set in
// the YAML file at path (if path is non-empty and readable).
func LoadClarifyTemplates(path string) (ClarifyTemplates, error) {
	tpl := defaultClarifyTemplates()
	if path == "" {
		return tpl, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return tpl, fmt.Errorf("read clarify config: %w", err)
	}
	var override ClarifyTemplates
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return tpl, fmt.Errorf("parse clarify config: %w", err)
	}
	merge := func(dst, src map[string]string) {
		for k, v := range src {
			dst[k] = v
		}
	}
	merge(tpl.Policy, override.Policy)
	merge(tpl.Compare, override.Compare)
	merge(tpl.Generic, override.Generic)
	merge(tpl.Fallback, override.Fallback)
	merge(tpl.AskCategory, override.AskCategory)
	merge(tpl.AskBudget, override.AskBudget)
	merge(tpl.AskNeed, override.AskNeed)
	merge(tpl.Combined, override.Combined)
	merge(tpl.PartCategory, override.PartCategory)
	merge(tpl.PartBudget, override.PartBudget)
	merge(tpl.PartNeed, override.PartNeed)
	return tpl, nil
}

// buildClarify picks the clarifying question for an ambiguous message.
// Policy and compare hints get their dedicated questions. Otherwise the
// question targets the missing facts among category/model, budget, and
// priority; bare acknowledgements get the generic preference question since
// no fact in them is trustworthy.
func (t ClarifyTemplates) buildClarify(lang, intentHint string, sig clarifySignals) string {
	switch intentHint {
	case "policy":
		return t.Policy[lang]
	case "compare":
		return t.Compare[lang]
	}

	if sig.isOnlyAck {
		return t.Generic[lang]
	}

	type missing struct {
		part string
		ask  string
	}
	missingFacts := []missing{}
	if !sig.hasCategoryOrModel {
		missingFacts = append(missingFacts, missing{t.PartCategory[lang], t.AskCategory[lang]})
	}
	if !sig.hasBudget {
		missingFacts = append(missingFacts, missing{t.PartBudget[lang], t.AskBudget[lang]})
	}
	if !sig.hasNeed {
		missingFacts = append(missingFacts, missing{t.PartNeed[lang], t.AskNeed[lang]})
	}

	switch len(missingFacts) {
	case 0:
		return t.Generic[lang]
	case 1:
		return missingFacts[0].ask
	default:
		return fmt.Sprintf(t.Combined[lang], missingFacts[0].part, missingFacts[1].part)
	}
}

func (t ClarifyTemplates) fallback(lang string) string {
	return t.Fallback[lang]
}
