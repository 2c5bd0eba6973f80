package services

// denverQuestions is the simplified Denver II questionnaire: three to five
// key milestones per age band from 0 to 36 months, across the four
// developmental domains. The catalog is defined at build time and never
// mutated, so it is safe to share process-wide.
var denverQuestions = []Question{
	// 0-3 months
	{ID: "gm_0_3_1", Text: "Can your baby lift their head when lying on their stomach?", Category: CategoryGrossMotor, AgeBand: "0-3", MilestoneAgeMonth: 1},
	{ID: "fm_0_3_1", Text: "Does your baby follow objects with their eyes?", Category: CategoryFineMotor, AgeBand: "0-3", MilestoneAgeMonth: 2},
	{ID: "lang_0_3_1", Text: "Does your baby make cooing sounds?", Category: CategoryLanguage, AgeBand: "0-3", MilestoneAgeMonth: 2},
	{ID: "ps_0_3_1", Text: "Does your baby smile in response to your face?", Category: CategoryPersonalSocial, AgeBand: "0-3", MilestoneAgeMonth: 2},

	// 3-6 months
	{ID: "gm_3_6_1", Text: "Can your baby roll from stomach to back?", Category: CategoryGrossMotor, AgeBand: "3-6", MilestoneAgeMonth: 4},
	{ID: "gm_3_6_2", Text: "Can your baby sit with support?", Category: CategoryGrossMotor, AgeBand: "3-6", MilestoneAgeMonth: 5},
	{ID: "fm_3_6_1", Text: "Does your baby reach for and grasp objects?", Category: CategoryFineMotor, AgeBand: "3-6", MilestoneAgeMonth: 4},
	{ID: "lang_3_6_1", Text: "Does your baby babble (make repetitive sounds like \"ba-ba-ba\")?", Category: CategoryLanguage, AgeBand: "3-6", MilestoneAgeMonth: 5},
	{ID: "ps_3_6_1", Text: "Does your baby recognize familiar faces?", Category: CategoryPersonalSocial, AgeBand: "3-6", MilestoneAgeMonth: 4},

	// 6-9 months
	{ID: "gm_6_9_1", Text: "Can your baby sit without support?", Category: CategoryGrossMotor, AgeBand: "6-9", MilestoneAgeMonth: 7},
	{ID: "gm_6_9_2", Text: "Can your baby crawl on hands and knees?", Category: CategoryGrossMotor, AgeBand: "6-9", MilestoneAgeMonth: 8},
	{ID: "fm_6_9_1", Text: "Can your baby transfer objects from one hand to the other?", Category: CategoryFineMotor, AgeBand: "6-9", MilestoneAgeMonth: 7},
	{ID: "lang_6_9_1", Text: "Does your baby respond to their name?", Category: CategoryLanguage, AgeBand: "6-9", MilestoneAgeMonth: 7},
	{ID: "ps_6_9_1", Text: "Does your baby show stranger anxiety or wariness?", Category: CategoryPersonalSocial, AgeBand: "6-9", MilestoneAgeMonth: 8},

	// 9-12 months
	{ID: "gm_9_12_1", Text: "Can your baby pull themselves up to stand?", Category: CategoryGrossMotor, AgeBand: "9-12", MilestoneAgeMonth: 10},
	{ID: "gm_9_12_2", Text: "Can your baby walk while holding onto furniture (cruising)?", Category: CategoryGrossMotor, AgeBand: "9-12", MilestoneAgeMonth: 11},
	{ID: "fm_9_12_1", Text: "Can your baby use a pincer grasp (thumb and index finger) to pick up small objects?", Category: CategoryFineMotor, AgeBand: "9-12", MilestoneAgeMonth: 10},
	{ID: "lang_9_12_1", Text: "Does your baby say \"mama\" or \"dada\" with meaning?", Category: CategoryLanguage, AgeBand: "9-12", MilestoneAgeMonth: 10},
	{ID: "ps_9_12_1", Text: "Does your baby wave bye-bye or play peek-a-boo?", Category: CategoryPersonalSocial, AgeBand: "9-12", MilestoneAgeMonth: 10},

	// 12-15 months
	{ID: "gm_12_15_1", Text: "Can your baby walk independently?", Category: CategoryGrossMotor, AgeBand: "12-15", MilestoneAgeMonth: 13},
	{ID: "fm_12_15_1", Text: "Can your baby stack 2 blocks?", Category: CategoryFineMotor, AgeBand: "12-15", MilestoneAgeMonth: 14},
	{ID: "lang_12_15_1", Text: "Does your baby say at least 3 words besides \"mama\" and \"dada\"?", Category: CategoryLanguage, AgeBand: "12-15", MilestoneAgeMonth: 14},
	{ID: "ps_12_15_1", Text: "Does your baby imitate actions like clapping or feeding a doll?", Category: CategoryPersonalSocial, AgeBand: "12-15", MilestoneAgeMonth: 13},

	// 15-18 months
	{ID: "gm_15_18_1", Text: "Can your baby walk up stairs with help?", Category: CategoryGrossMotor, AgeBand: "15-18", MilestoneAgeMonth: 16},
	{ID: "fm_15_18_1", Text: "Can your baby scribble with a crayon?", Category: CategoryFineMotor, AgeBand: "15-18", MilestoneAgeMonth: 16},
	{ID: "lang_15_18_1", Text: "Does your baby follow simple one-step commands (e.g., \"give me the ball\")?", Category: CategoryLanguage, AgeBand: "15-18", MilestoneAgeMonth: 17},
	{ID: "ps_15_18_1", Text: "Does your baby point to show you something interesting?", Category: CategoryPersonalSocial, AgeBand: "15-18", MilestoneAgeMonth: 16},

	// 18-24 months
	{ID: "gm_18_24_1", Text: "Can your baby run?", Category: CategoryGrossMotor, AgeBand: "18-24", MilestoneAgeMonth: 20},
	{ID: "gm_18_24_2", Text: "Can your baby kick a ball?", Category: CategoryGrossMotor, AgeBand: "18-24", MilestoneAgeMonth: 22},
	{ID: "fm_18_24_1", Text: "Can your baby stack 4 blocks?", Category: CategoryFineMotor, AgeBand: "18-24", MilestoneAgeMonth: 20},
	{ID: "lang_18_24_1", Text: "Does your baby say at least 20 words?", Category: CategoryLanguage, AgeBand: "18-24", MilestoneAgeMonth: 20},
	{ID: "ps_18_24_1", Text: "Does your baby help with simple tasks like putting toys away?", Category: CategoryPersonalSocial, AgeBand: "18-24", MilestoneAgeMonth: 21},

	// 24-30 months
	{ID: "gm_24_30_1", Text: "Can your baby jump with both feet off the ground?", Category: CategoryGrossMotor, AgeBand: "24-30", MilestoneAgeMonth: 26},
	{ID: "fm_24_30_1", Text: "Can your baby draw a vertical line?", Category: CategoryFineMotor, AgeBand: "24-30", MilestoneAgeMonth: 27},
	{ID: "lang_24_30_1", Text: "Does your baby combine 2 words (e.g., \"more milk\", \"daddy go\")?", Category: CategoryLanguage, AgeBand: "24-30", MilestoneAgeMonth: 26},
	{ID: "ps_24_30_1", Text: "Does your baby play alongside other children (parallel play)?", Category: CategoryPersonalSocial, AgeBand: "24-30", MilestoneAgeMonth: 27},

	// 30-36 months
	{ID: "gm_30_36_1", Text: "Can your baby pedal a tricycle?", Category: CategoryGrossMotor, AgeBand: "30-36", MilestoneAgeMonth: 32},
	{ID: "fm_30_36_1", Text: "Can your baby copy a circle when drawing?", Category: CategoryFineMotor, AgeBand: "30-36", MilestoneAgeMonth: 33},
	{ID: "lang_30_36_1", Text: "Does your baby speak in 3-word sentences?", Category: CategoryLanguage, AgeBand: "30-36", MilestoneAgeMonth: 32},
	{ID: "ps_30_36_1", Text: "Does your baby take turns in simple games?", Category: CategoryPersonalSocial, AgeBand: "30-36", MilestoneAgeMonth: 33},
}
