// Package classification holds the network-free parts of routing: keyword
// pattern sets, the heuristic fallback classifier and the field normalizer.
package classification

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/lifesort/internal/model"
)

// Pattern is a named keyword expression.
type Pattern struct {
	Name     string
	Regex    string
	Priority int // Higher priority patterns are checked first
}

// CompiledPattern holds a compiled regex pattern with metadata.
type CompiledPattern struct {
	compiledRegex *regexp.Regexp
	Pattern
}

// Matches reports whether the pattern occurs in text.
func (p CompiledPattern) Matches(text string) bool {
	return p.compiledRegex.MatchString(text)
}

// compilePatterns compiles and orders patterns by priority, highest first.
// Equal priorities keep their declaration order.
func compilePatterns(patterns []Pattern) []CompiledPattern {
	compiled := make([]CompiledPattern, 0, len(patterns))
	for _, p := range patterns {
		regexStr := p.Regex
		if !strings.HasPrefix(regexStr, "(?i)") {
			regexStr = "(?i)" + regexStr
		}
		compiled = append(compiled, CompiledPattern{
			Pattern:       p,
			compiledRegex: regexp.MustCompile(regexStr),
		})
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})
	return compiled
}

// Domain keyword sets used by the heuristic classifier.
var (
	financeKeywords = compilePatterns([]Pattern{{
		Name:  "finance",
		Regex: `花了|花费|消费|买了|购买|支付|付了|付款|元|块钱|账单|报销|工资|收入|充值|转账|spent|paid|bought`,
	}})
	inventoryKeywords = compilePatterns([]Pattern{{
		Name:  "inventory",
		Regex: `冰箱|冷藏|冷冻|冰柜|库存|囤|还有|还剩|剩下|存放|放在|保质期|过期|家里有|储物|收纳`,
	}})
	todoKeywords = compilePatterns([]Pattern{{
		Name:  "todo",
		Regex: `提醒|记得|别忘|待办|要去|需要|得去|计划|安排|预约|明天|后天|下周|今晚|截止|完成|开会|会议|任务|作业|remind|todo`,
	}})
)

// todoCategoryPatterns are checked in this fixed order; the first match wins.
var todoCategoryPatterns = compilePatterns([]Pattern{
	{Name: model.TodoCategoryWork, Regex: `工作|会议|开会|项目|报告|客户|加班|邮件|老板|同事|汇报|周报`, Priority: 70},
	{Name: model.TodoCategoryStudy, Regex: `学习|考试|作业|复习|课程|读书|论文|上课|背单词|练习`, Priority: 60},
	{Name: model.TodoCategoryHealth, Regex: `医院|看病|体检|吃药|运动|健身|跑步|医生|牙|挂号|睡觉`, Priority: 50},
	{Name: model.TodoCategoryShopping, Regex: `购物|超市|下单|快递|买`, Priority: 40},
	{Name: model.TodoCategoryTravel, Regex: `旅行|出差|机票|火车|高铁|酒店|行李|旅游|航班|签证`, Priority: 30},
	{Name: model.TodoCategoryLife, Regex: `缴费|房租|打扫|洗衣|做饭|水电|生日|家务|搬家|修理`, Priority: 20},
	{Name: model.TodoCategoryInspiration, Regex: `灵感|想法|点子|创意|构思`, Priority: 10},
})

// todoCategoryAliases canonicalizes explicit categories supplied by the model.
var todoCategoryAliases = map[string]string{
	"work":          model.TodoCategoryWork,
	"study":         model.TodoCategoryStudy,
	"health":        model.TodoCategoryHealth,
	"shopping":      model.TodoCategoryShopping,
	"travel":        model.TodoCategoryTravel,
	"life":          model.TodoCategoryLife,
	"inspiration":   model.TodoCategoryInspiration,
	"uncategorized": model.TodoCategoryUncategorized,
}

func init() {
	for _, label := range []string{
		model.TodoCategoryWork, model.TodoCategoryStudy, model.TodoCategoryHealth,
		model.TodoCategoryShopping, model.TodoCategoryTravel, model.TodoCategoryLife,
		model.TodoCategoryInspiration, model.TodoCategoryUncategorized,
	} {
		todoCategoryAliases[label] = label
	}
}

// InferTodoCategory returns the first keyword category matching text, or "".
func InferTodoCategory(text string) string {
	for _, p := range todoCategoryPatterns {
		if p.Matches(text) {
			return p.Name
		}
	}
	return ""
}

// storageZoneAliases maps model output and everyday phrasing onto zones.
var storageZoneAliases = map[string]model.StorageZone{
	"refrigerated": model.ZoneRefrigerated,
	"fridge":       model.ZoneRefrigerated,
	"冷藏":           model.ZoneRefrigerated,
	"冰箱":           model.ZoneRefrigerated,
	"frozen":       model.ZoneFrozen,
	"freezer":      model.ZoneFrozen,
	"冷冻":           model.ZoneFrozen,
	"冰柜":           model.ZoneFrozen,
	"pantry":       model.ZonePantry,
	"储物柜":          model.ZonePantry,
	"橱柜":           model.ZonePantry,
	"干货":           model.ZonePantry,
	"bathroom":     model.ZoneBathroom,
	"浴室":           model.ZoneBathroom,
	"卫生间":          model.ZoneBathroom,
	"kitchen":      model.ZoneKitchen,
	"厨房":           model.ZoneKitchen,
	"living_room":  model.ZoneLivingRoom,
	"living-room":  model.ZoneLivingRoom,
	"客厅":           model.ZoneLivingRoom,
	"bedroom":      model.ZoneBedroom,
	"卧室":           model.ZoneBedroom,
	"storage_room": model.ZoneStorageRoom,
	"storage-room": model.ZoneStorageRoom,
	"储藏室":          model.ZoneStorageRoom,
	"杂物间":          model.ZoneStorageRoom,
	"other":        model.ZoneOther,
	"其他":           model.ZoneOther,
}

// ParseStorageZone canonicalizes a zone name. Unknown names become ZoneOther.
func ParseStorageZone(s string) model.StorageZone {
	if z, ok := storageZoneAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return z
	}
	return model.ZoneOther
}

var (
	frozenPattern       = regexp.MustCompile(`冷冻|冰柜|速冻`)
	refrigeratedPattern = regexp.MustCompile(`冰箱|冷藏|保鲜`)
)

// zoneFromText infers a zone from refrigeration-related substrings.
func zoneFromText(text string) model.StorageZone {
	switch {
	case frozenPattern.MatchString(text):
		return model.ZoneFrozen
	case refrigeratedPattern.MatchString(text):
		return model.ZoneRefrigerated
	}
	return model.ZoneOther
}

var (
	amountWithCurrency = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:元|块|rmb|RMB|人民币)`)
	amountWithSymbol   = regexp.MustCompile(`[¥￥$]\s*(\d+(?:\.\d+)?)`)
	bareNumber         = regexp.MustCompile(`\d+(?:\.\d+)?`)

	quantityUnit = regexp.MustCompile(`(\d+(?:\.\d+)?|[零一二两三四五六七八九十百半]+)\s*(公斤|千克|毫升|瓶|个|袋|盒|包|罐|支|斤|克|升|条|块|箱|颗|把|只|件|卷|双|本|张|台|片)`)
)

// extractAmount finds the most plausible money amount in text.
func extractAmount(text string) (float64, bool) {
	for _, re := range []*regexp.Regexp{amountWithCurrency, amountWithSymbol} {
		if m := re.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v, true
			}
		}
	}
	if m := bareNumber.FindString(text); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// extractQuantity finds the first quantity+unit token in text.
func extractQuantity(text string) (float64, string, bool) {
	m := quantityUnit.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	qty, ok := parseQuantity(m[1])
	if !ok {
		return 0, "", false
	}
	return qty, m[2], true
}

func parseQuantity(s string) (float64, bool) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	return parseChineseNumber(s)
}

var chineseDigits = map[rune]int{
	'零': 0, '一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// parseChineseNumber handles the small numerals people use for household
// quantities: 两, 十二, 二十五, 三百, 半.
func parseChineseNumber(s string) (float64, bool) {
	if s == "半" {
		return 0.5, true
	}
	total, current := 0, 0
	for _, r := range s {
		if d, ok := chineseDigits[r]; ok {
			current = d
			continue
		}
		var unit int
		switch r {
		case '十':
			unit = 10
		case '百':
			unit = 100
		default:
			return 0, false
		}
		if current == 0 {
			current = 1
		}
		total += current * unit
		current = 0
	}
	total += current
	if total == 0 {
		return 0, false
	}
	return float64(total), true
}
