package keywords

// defaultStopwords are filler words and interjections that carry no story value
var defaultStopwords = []string{
	"的", "了", "和", "是", "在", "我", "有", "不", "这", "也", "你", "都",
	"我们", "你们", "他们", "她们", "它们", "那", "就", "还", "要", "人",
	"啊", "哦", "呢", "吧", "呀", "哎", "噢", "喔", "哇", "嗯", "嘿", "哼",
	"la", "oh", "yeah", "hey", "baby", "ah", "ooh", "na",
}

// DefaultStopwords returns a fresh copy of the built-in stopword set
func DefaultStopwords() map[string]struct{} {
	set := make(map[string]struct{}, len(defaultStopwords))
	for _, w := range defaultStopwords {
		set[w] = struct{}{}
	}
	return set
}
