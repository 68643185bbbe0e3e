package outline

import "notes-tui/internal/model"

func note(id int64, title string, children ...model.TreeNote) model.TreeNote {
	return model.TreeNote{ID: id, Title: title, Children: children}
}

func titles(notes []model.TreeNote) []string {
	var out []string
	var walk func([]model.TreeNote)
	walk = func(ns []model.TreeNote) {
		for _, n := range ns {
			out = append(out, n.Title)
			walk(n.Children)
		}
	}
	walk(notes)
	return out
}

// sample is:
//
//	A
//	  B
//	  C
//	    D
//	E
//	  F
//	    G
//	      H
func sample() []model.TreeNote {
	return []model.TreeNote{
		note(1, "A", note(2, "B"), note(3, "C", note(4, "D"))),
		note(5, "E", note(6, "F", note(7, "G", note(8, "H")))),
	}
}
