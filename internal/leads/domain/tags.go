package domain

import "sort"

// DeriveTags builds the initial tag set for a new lead from its form type
// and answers. The result is sorted and free of duplicates.
func DeriveTags(lead Lead) []string {
	set := map[string]struct{}{}
	add := func(tag string) {
		if tag != "" {
			set[tag] = struct{}{}
		}
	}

	switch lead.FormType {
	case FormContact:
		add("contact")
		if lead.InvestmentRange != "" {
			add("investment:" + lead.InvestmentRange)
		}
	case FormLeadMagnet:
		add("lead-magnet")
	case FormQuiz:
		add("quiz")
		if lead.Tier != "" {
			add("tier:" + string(lead.Tier))
		}
		if a := lead.Answers; a != nil {
			if a.Timeline != "" {
				add("timeline:" + a.Timeline)
			}
			if a.IncomeBracket != "" {
				add("income:" + a.IncomeBracket)
			}
			if a.MonthlyCost != "" {
				add("housing:" + a.MonthlyCost)
			}
		}
	}

	if lead.Phone != "" && lead.SMSConsent {
		add("sms-opt-in")
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
