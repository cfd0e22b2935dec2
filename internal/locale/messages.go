package locale

// Messages are the user facing strings of the CLI in one language.
type Messages struct {
	NoData         string
	NoMatch        string
	Rolled         string // takes the gem count
	RefreshRunning string
	RefreshDone    string
	RefreshFailed  string

	ColAscendancy string
	ColGem        string
	ColTags       string
	ColRule       string
	ColTag        string
	RuleInclude   string
	RuleExclude   string
}

var messages = map[Lang]Messages{
	TW: {
		NoData:         "無資料 (請先更新資料庫)",
		NoMatch:        "找不到符合條件的技能。",
		Rolled:         "成功抽取 %d 個技能。",
		RefreshRunning: "正在更新資料庫... 請稍候",
		RefreshDone:    "資料庫更新完成！",
		RefreshFailed:  "更新失敗，請檢查網路或瀏覽器。",

		ColAscendancy: "昇華職業",
		ColGem:        "寶石名稱",
		ColTags:       "標籤",
		ColRule:       "規則",
		ColTag:        "標籤",
		RuleInclude:   "[+] 包含",
		RuleExclude:   "[-] 排除",
	},
	US: {
		NoData:         "No data (refresh the database first)",
		NoMatch:        "No gems match the filter.",
		Rolled:         "Rolled %d gems.",
		RefreshRunning: "Updating database... Please wait.",
		RefreshDone:    "Database updated successfully!",
		RefreshFailed:  "Update failed. Check the network or browser.",

		ColAscendancy: "Ascendancy",
		ColGem:        "Gem",
		ColTags:       "Tags",
		ColRule:       "Rule",
		ColTag:        "Tag",
		RuleInclude:   "[+] Include",
		RuleExclude:   "[-] Exclude",
	},
}

// Messages falls back to the Default language for unknown codes.
func (l Lang) Messages() Messages {
	m, ok := messages[l]
	if !ok {
		return messages[Default]
	}
	return m
}
