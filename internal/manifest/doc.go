// Package manifest reads YAML descriptions of a finished import run so the
// CLI can replay them into an import session.
//
//	roots:
//	  - /music/incoming/Some Album
//	items:
//	  - source: /music/incoming/Some Album/CD1
//	    dest: Some Artist/Some Album/Disc 1
//	    consumed: [01.flac, 02.flac]
//	  - source: /music/incoming/loose
//	    dest: Singles
//	    consumed: [track.mp3]
//	    singleton: true
//
// Relative roots and sources resolve against the manifest's directory.
// Destinations are left to the caller's DestResolver, which normally joins
// them to the configured library.
package manifest
